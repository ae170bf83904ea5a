package clipwatch

import (
	"fmt"

	"golang.design/x/clipboard"

	"clipvault/internal/history"
)

// SystemBoard writes to the real OS clipboard. It lives here rather than in
// the paste package so clipboard initialization has a single owner.
type SystemBoard struct{}

// Write places the payload on the OS clipboard in its native format.
func (SystemBoard) Write(kind history.Kind, data []byte) error {
	var format clipboard.Format
	switch kind {
	case history.KindText:
		format = clipboard.FmtText
	case history.KindImage:
		format = clipboard.FmtImage
	default:
		return fmt.Errorf("%w: entry kind %q", ErrUnsupportedFormat, kind)
	}
	if err := ensureClipboard(); err != nil {
		return fmt.Errorf("clipboard init: %w", err)
	}
	clipboard.Write(format, data)
	return nil
}
