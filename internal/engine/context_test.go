package engine

import "testing"

func TestTrackerUpdate(t *testing.T) {
	var tr tracker

	steps := []struct {
		msg   string
		fold  int
		epoch int
	}{
		{"Train shape: (7613, 5)", 0, 0},
		{"========== Fold 1 / 5 ==========", 1, 0},
		{"Fold 1 — Epoch 1/3", 1, 1},
		{"Train loss: 0.4929", 1, 1},
		{"Fold 1 | Epoch 2 | Step 100/381 | Loss: 0.1251", 1, 2},
		{"========== Fold 2 / 5 ==========", 2, 2},
		{"Epoch 1 restarted", 2, 1},
		// no validation: folds may go backwards
		{"Fold 1 rerun", 1, 1},
	}
	for _, s := range steps {
		tr.update(s.msg)
		if tr.ctx.Fold != s.fold || tr.ctx.Epoch != s.epoch {
			t.Errorf("after %q: got fold=%d epoch=%d, want fold=%d epoch=%d",
				s.msg, tr.ctx.Fold, tr.ctx.Epoch, s.fold, s.epoch)
		}
	}
}

func TestTrackerWordBoundary(t *testing.T) {
	var tr tracker
	tr.update("KFold 3 Epochs 4")
	if tr.ctx.Fold != 0 || tr.ctx.Epoch != 0 {
		t.Errorf("got fold=%d epoch=%d, want 0/0", tr.ctx.Fold, tr.ctx.Epoch)
	}
}
