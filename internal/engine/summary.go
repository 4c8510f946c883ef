package engine

import "github.com/ppiankov/neurofold/internal/logtypes"

// aggregator accumulates the run summary as a side effect of the scan.
type aggregator struct {
	summary logtypes.RunSummary
}

// observe runs once per line. The duration is the timestamp of the last
// line, 0 when that line has none.
func (a *aggregator) observe(ts float64) {
	a.summary.RunDurationSeconds = ts
}

func (a *aggregator) recordOOF(f1 float64, threshold *float64) {
	a.summary.BestOutOfFoldF1 = &f1
	if threshold != nil {
		a.summary.BestThreshold = threshold
	}
}
