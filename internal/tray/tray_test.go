package tray

import (
	"testing"

	"clipvault/internal/history"
)

// TestSlotTitle verifies menu title rendering for history entries.
// This tests the pure helper only, not the systray wiring.
func TestSlotTitle(t *testing.T) {
	tests := []struct {
		name  string
		entry history.Entry
		want  string
	}{
		{
			name:  "text preview",
			entry: history.Entry{Kind: history.KindText, Preview: "hello world"},
			want:  "hello world",
		},
		{
			name:  "pinned entry marked",
			entry: history.Entry{Kind: history.KindText, Preview: "keep me", Pinned: true},
			want:  "📌 keep me",
		},
		{
			name:  "empty preview falls back to kind",
			entry: history.Entry{Kind: history.KindImage},
			want:  "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slotTitle(tt.entry); got != tt.want {
				t.Errorf("slotTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
