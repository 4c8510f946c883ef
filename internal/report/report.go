package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ppiankov/neurofold/internal/engine"
	"github.com/ppiankov/neurofold/internal/logtypes"
)

// Report is the headline view of one parsed training run.
type Report struct {
	Source    string              `json:"source,omitempty"`
	Summary   logtypes.RunSummary `json:"summary"`
	AverageF1 *float64            `json:"average_f1,omitempty"`
	Folds     []FoldSummary       `json:"folds"`
	Counts    Counts              `json:"counts"`
}

// FoldSummary compares one fold's epoch records.
type FoldSummary struct {
	Fold           int      `json:"fold"`
	Epochs         int      `json:"epochs"`
	BestF1         *float64 `json:"best_f1,omitempty"`
	BestF1Epoch    int      `json:"best_f1_epoch,omitempty"`
	MinValLoss     *float64 `json:"min_validation_loss,omitempty"`
	FinalTrainLoss *float64 `json:"final_train_loss,omitempty"`
}

// Counts tallies what the parse produced.
type Counts struct {
	Lines         int `json:"lines"`
	RelevantLines int `json:"relevant_lines"`
	StepRecords   int `json:"step_records"`
	EpochRecords  int `json:"epoch_records"`
	Dropped       int `json:"dropped"`
}

// Build derives a report from a parse result.
func Build(source string, res *engine.Result) *Report {
	r := &Report{
		Source:  source,
		Summary: res.Summary,
		Folds:   buildFolds(res.MetricsByKind(logtypes.KindEpochEnd)),
		Counts:  buildCounts(res),
	}
	r.AverageF1 = averageF1(r.Folds)
	return r
}

func buildFolds(epochs []logtypes.MetricRecord) []FoldSummary {
	byFold := make(map[int]*FoldSummary)
	for _, m := range epochs {
		f, ok := byFold[m.Fold]
		if !ok {
			f = &FoldSummary{Fold: m.Fold}
			byFold[m.Fold] = f
		}
		if m.Epoch > f.Epochs {
			f.Epochs = m.Epoch
		}
		if m.ValidationF1 != nil && (f.BestF1 == nil || *m.ValidationF1 > *f.BestF1) {
			f.BestF1 = logtypes.Float(*m.ValidationF1)
			f.BestF1Epoch = m.Epoch
		}
		if m.ValidationLoss != nil && (f.MinValLoss == nil || *m.ValidationLoss < *f.MinValLoss) {
			f.MinValLoss = logtypes.Float(*m.ValidationLoss)
		}
		if m.TrainLoss != nil {
			f.FinalTrainLoss = logtypes.Float(*m.TrainLoss)
		}
	}

	folds := make([]FoldSummary, 0, len(byFold))
	for _, f := range byFold {
		folds = append(folds, *f)
	}
	sort.Slice(folds, func(i, j int) bool { return folds[i].Fold < folds[j].Fold })
	return folds
}

// averageF1 is the mean of per-fold best F1 over folds that reported one.
func averageF1(folds []FoldSummary) *float64 {
	var sum float64
	var n int
	for _, f := range folds {
		if f.BestF1 != nil {
			sum += *f.BestF1
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return logtypes.Float(sum / float64(n))
}

func buildCounts(res *engine.Result) Counts {
	c := Counts{
		Lines:   len(res.Lines),
		Dropped: len(res.Dropped),
	}
	for _, l := range res.Lines {
		if l.Relevant {
			c.RelevantLines++
		}
	}
	for _, m := range res.Metrics {
		switch m.Kind {
		case logtypes.KindStep:
			c.StepRecords++
		case logtypes.KindEpochEnd:
			c.EpochRecords++
		}
	}
	return c
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a plain-text report for terminals.
func (r *Report) WriteText(w io.Writer) error {
	if r.Source != "" {
		fmt.Fprintf(w, "Source:        %s\n", r.Source)
	}
	fmt.Fprintf(w, "Best OOF F1:   %s\n", FormatScore(r.Summary.BestOutOfFoldF1))
	fmt.Fprintf(w, "Threshold:     %s\n", FormatScore(r.Summary.BestThreshold))
	fmt.Fprintf(w, "Average F1:    %s\n", FormatScore(r.AverageF1))
	fmt.Fprintf(w, "Duration:      %s\n", FormatDuration(r.Summary.RunDurationSeconds))
	fmt.Fprintf(w, "Folds:         %d\n", len(r.Folds))
	fmt.Fprintf(w, "Lines:         %s (%s relevant)\n", FormatCount(int64(r.Counts.Lines)), FormatCount(int64(r.Counts.RelevantLines)))
	fmt.Fprintf(w, "Records:       %d step, %d epoch\n", r.Counts.StepRecords, r.Counts.EpochRecords)
	if r.Counts.Dropped > 0 {
		fmt.Fprintf(w, "Dropped:       %d validation values\n", r.Counts.Dropped)
	}

	if len(r.Folds) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-6s %-7s %-9s %-13s %s\n", "FOLD", "EPOCHS", "BEST F1", "MIN VAL LOSS", "FINAL TRAIN LOSS")
	for _, f := range r.Folds {
		fmt.Fprintf(w, "%-6d %-7d %-9s %-13s %s\n",
			f.Fold, f.Epochs, FormatScore(f.BestF1), FormatScore(f.MinValLoss), FormatScore(f.FinalTrainLoss))
	}
	return nil
}

// FormatScore renders an optional metric with four decimals, or N/A.
func FormatScore(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *v)
}

// FormatDuration renders log seconds as a rounded duration, or N/A for zero.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "N/A"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// FormatCount renders a count with K/M suffixes.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
