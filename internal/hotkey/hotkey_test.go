package hotkey

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipvault/internal/platform"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		combo   string
		want    []string
		wantErr bool
	}{
		{"ctrl+shift+v", []string{"ctrl", "shift", "v"}, false},
		{"Ctrl+Shift+V", []string{"ctrl", "shift", "v"}, false},
		{" ctrl + v ", []string{"ctrl", "v"}, false},
		{"v", nil, true},
		{"", nil, true},
		{"ctrl++v", nil, true},
	}

	for _, tt := range tests {
		got, err := Keys(tt.combo)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Keys(%q) expected error, got %v", tt.combo, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Keys(%q) unexpected error: %v", tt.combo, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("Keys(%q) = %v, want %v", tt.combo, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Keys(%q)[%d] = %q, want %q", tt.combo, i, got[i], tt.want[i])
			}
		}
	}
}

func TestNewRejectsBadCombo(t *testing.T) {
	if _, err := New("justonekey", zerolog.Nop()); err == nil {
		t.Error("New should reject a combo without a modifier")
	}
}

func TestFireCapturesForegroundWindowAtEventTime(t *testing.T) {
	w, err := New("ctrl+shift+v", zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	current := platform.Window(42)
	w.foreground = func() platform.Window { return current }

	w.fire()
	// Focus moves after the event; the activation must carry the old window.
	current = platform.Window(99)

	select {
	case act := <-w.Activations():
		if act.Window != platform.Window(42) {
			t.Errorf("Window = %d, want 42 (captured at event time)", act.Window)
		}
		if act.At.IsZero() {
			t.Error("At should be set")
		}
	case <-time.After(time.Second):
		t.Fatal("no activation received")
	}
}

func TestFireDropsWhenBufferFull(t *testing.T) {
	w, err := New("ctrl+shift+v", zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.foreground = func() platform.Window { return platform.None }

	// Overfill: must not block the hook dispatch path.
	for i := 0; i < activationBuffer+3; i++ {
		w.fire()
	}

	var got int
	for {
		select {
		case <-w.Activations():
			got++
			continue
		default:
		}
		break
	}
	if got != activationBuffer {
		t.Errorf("buffered activations = %d, want %d", got, activationBuffer)
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	w, err := New("ctrl+shift+v", zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.Stop()
	w.Stop()
}
