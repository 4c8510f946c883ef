package export

import (
	"encoding/csv"
	"strconv"

	"github.com/ppiankov/neurofold/internal/logtypes"
)

var (
	lineHeader   = []string{"index", "timestamp", "log_index", "relevant", "rule", "message"}
	metricHeader = []string{"timestamp", "kind", "fold", "epoch", "step", "train_loss", "validation_loss", "validation_f1"}
)

type csvWriter[T any] struct {
	out *output
	w   *csv.Writer
	row func(T) []string
}

func newCSVWriter[T any](path string, header []string, row func(T) []string) (*csvWriter[T], error) {
	out, err := createOutput(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(out.writer())
	if err := w.Write(header); err != nil {
		_ = out.Close()
		return nil, err
	}

	return &csvWriter[T]{out: out, w: w, row: row}, nil
}

func (w *csvWriter[T]) Write(v T) error {
	return w.w.Write(w.row(v))
}

func (w *csvWriter[T]) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		_ = w.out.Close()
		return err
	}
	return w.out.Close()
}

func lineRow(l logtypes.AnnotatedLine) []string {
	return []string{
		strconv.Itoa(l.Index),
		formatFloat(l.Timestamp),
		strconv.Itoa(l.LogIndex),
		strconv.FormatBool(l.Relevant),
		l.Rule,
		l.Message,
	}
}

func metricRow(m logtypes.MetricRecord) []string {
	return []string{
		formatFloat(m.Timestamp),
		string(m.Kind),
		strconv.Itoa(m.Fold),
		strconv.Itoa(m.Epoch),
		strconv.Itoa(m.Step),
		formatOptional(m.TrainLoss),
		formatOptional(m.ValidationLoss),
		formatOptional(m.ValidationF1),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional leaves the cell empty for absent values.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
