package engine

import "testing"

func TestNormalizeTimestampAndIndex(t *testing.T) {
	n := Normalize("168.4s\t68\t  Fold 1 | Epoch 1 | Step 100/381 | Loss: 0.3754")
	if n.Timestamp != 168.4 {
		t.Errorf("Timestamp = %v, want 168.4", n.Timestamp)
	}
	if n.LogIndex != 68 {
		t.Errorf("LogIndex = %d, want 68", n.LogIndex)
	}
	want := "Fold 1 | Epoch 1 | Step 100/381 | Loss: 0.3754"
	if n.Message != want {
		t.Errorf("Message = %q, want %q", n.Message, want)
	}
}

func TestNormalizeIntegerTimestamp(t *testing.T) {
	n := Normalize("12s 3 Train loss: 0.5")
	if n.Timestamp != 12 {
		t.Errorf("Timestamp = %v, want 12", n.Timestamp)
	}
	if n.Message != "Train loss: 0.5" {
		t.Errorf("Message = %q", n.Message)
	}
}

func TestNormalizeNoTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Using device: cuda  ", "Using device: cuda"},
		{"36 Using device: cuda", "36 Using device: cuda"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		n := Normalize(tt.input)
		if n.Message != tt.want {
			t.Errorf("Normalize(%q).Message = %q, want %q", tt.input, n.Message, tt.want)
		}
		if n.Timestamp != 0 {
			t.Errorf("Normalize(%q).Timestamp = %v, want 0", tt.input, n.Timestamp)
		}
		if n.LogIndex != 0 {
			t.Errorf("Normalize(%q).LogIndex = %d, want 0", tt.input, n.LogIndex)
		}
	}
}

func TestNormalizeTimestampWithoutIndex(t *testing.T) {
	n := Normalize("290.4s Val loss:   0.4086")
	if n.Timestamp != 290.4 {
		t.Errorf("Timestamp = %v, want 290.4", n.Timestamp)
	}
	if n.LogIndex != 0 {
		t.Errorf("LogIndex = %d, want 0", n.LogIndex)
	}
	if n.Message != "Val loss:   0.4086" {
		t.Errorf("Message = %q", n.Message)
	}
}

func TestNormalizeStripsANSI(t *testing.T) {
	n := Normalize("\x1b[32m105.1s\x1b[0m\t36\t\x1b[1mFold 1 / 5\x1b[0m")
	if n.Timestamp != 105.1 {
		t.Errorf("Timestamp = %v, want 105.1", n.Timestamp)
	}
	if n.Message != "Fold 1 / 5" {
		t.Errorf("Message = %q, want %q", n.Message, "Fold 1 / 5")
	}
}

func TestStripANSICursorControl(t *testing.T) {
	got := StripANSI("\x1b[?25lloading\x1b[?25h")
	if got != "loading" {
		t.Errorf("StripANSI = %q, want %q", got, "loading")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"105.1s\t36\tUsing device: cuda",
		"106.3s\t47\t========== Fold 1 / 5 ==========",
		"134.1s\t67\tFold 1 — Epoch 1/3",
		"290.4s\t74\t  🔥 New best F1 for fold 1: 0.7925",
		"2814.7s\t233\tBest OOF F1: 0.8072 at threshold 0.59",
		"\x1b[31mplain text with color\x1b[0m",
	}
	for _, in := range inputs {
		first := Normalize(in).Message
		second := Normalize(first).Message
		if first != second {
			t.Errorf("not idempotent for %q:\nfirst:  %q\nsecond: %q", in, first, second)
		}
	}
}
