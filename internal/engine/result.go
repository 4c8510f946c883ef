package engine

import (
	"sort"

	"github.com/ppiankov/neurofold/internal/logtypes"
)

// Result holds everything one parse produced.
type Result struct {
	Lines   []logtypes.AnnotatedLine `json:"lines"`
	Metrics []logtypes.MetricRecord  `json:"metrics"`
	Summary logtypes.RunSummary      `json:"summary"`
	Dropped []logtypes.DroppedValue  `json:"dropped,omitempty"`
}

// RelevantLines returns the lines the classifier kept.
func (r *Result) RelevantLines() []logtypes.AnnotatedLine {
	out := make([]logtypes.AnnotatedLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Relevant {
			out = append(out, l)
		}
	}
	return out
}

// MetricsByKind returns the records of one kind in input order.
func (r *Result) MetricsByKind(kind logtypes.Kind) []logtypes.MetricRecord {
	var out []logtypes.MetricRecord
	for _, m := range r.Metrics {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// MetricsByFold groups records by fold, preserving input order within a fold.
func (r *Result) MetricsByFold() map[int][]logtypes.MetricRecord {
	out := make(map[int][]logtypes.MetricRecord)
	for _, m := range r.Metrics {
		out[m.Fold] = append(out[m.Fold], m)
	}
	return out
}

// Folds returns the distinct folds that have records, ascending.
func (r *Result) Folds() []int {
	seen := make(map[int]bool)
	var folds []int
	for _, m := range r.Metrics {
		if !seen[m.Fold] {
			seen[m.Fold] = true
			folds = append(folds, m.Fold)
		}
	}
	sort.Ints(folds)
	return folds
}

// OnlyRelevant returns a copy of r whose line list keeps relevant lines only.
func (r *Result) OnlyRelevant() *Result {
	cp := *r
	cp.Lines = r.RelevantLines()
	return &cp
}
