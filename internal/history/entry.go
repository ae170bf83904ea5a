package history

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Kind distinguishes the two supported clipboard payloads. An entry is
// exactly one of the two, never both.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Entry is one stored clipboard history record.
type Entry struct {
	bun.BaseModel `bun:"table:entries"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Kind    Kind   `bun:"kind,notnull" json:"kind"`
	Content string `bun:"content" json:"content"`
	Image   []byte `bun:"image" json:"-"`
	Hash    string `bun:"hash,notnull" json:"-"`
	Preview string `bun:"preview" json:"preview"`
	Pinned  bool   `bun:"pinned,default:false" json:"pinned"`

	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
	LastUsedAt time.Time `bun:"last_used_at,notnull" json:"last_used_at"`
}

// Fingerprint returns the dedup hash for a payload. The kind participates
// so that a text entry can never collide with an image entry.
func Fingerprint(kind Kind, content string, image []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(content))
	h.Write(image)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// previewOf builds the short display string stored alongside an entry.
func previewOf(kind Kind, content string, image []byte, maxLen int) string {
	if kind == KindImage {
		return fmt.Sprintf("Image (%d KB)", len(image)/1024)
	}
	p := content
	if len(p) > maxLen {
		p = p[:maxLen]
	}
	p = strings.ReplaceAll(p, "\n", " ")
	return strings.TrimSpace(p)
}
