package logtypes

// Kind identifies what produced a metric record.
type Kind string

const (
	KindStep     Kind = "step"
	KindEpochEnd Kind = "epoch_end"
)

// AnnotatedLine is one input line after normalization and classification.
type AnnotatedLine struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"`
	LogIndex  int     `json:"log_index,omitempty"`
	Message   string  `json:"message"`
	Raw       string  `json:"raw"`
	Relevant  bool    `json:"relevant"`
	Rule      string  `json:"rule,omitempty"`
}

// MetricRecord is a single point of the training time series.
// Fold and Epoch are 0 until the log has mentioned one.
type MetricRecord struct {
	Timestamp      float64  `json:"timestamp"`
	Fold           int      `json:"fold"`
	Epoch          int      `json:"epoch"`
	Step           int      `json:"step"`
	TrainLoss      *float64 `json:"train_loss,omitempty"`
	ValidationLoss *float64 `json:"validation_loss,omitempty"`
	ValidationF1   *float64 `json:"validation_f1,omitempty"`
	Kind           Kind     `json:"kind"`
}

// RunSummary holds process-wide statistics of one parsed run.
type RunSummary struct {
	RunDurationSeconds float64  `json:"run_duration_seconds"`
	BestOutOfFoldF1    *float64 `json:"best_oof_f1,omitempty"`
	BestThreshold      *float64 `json:"best_threshold,omitempty"`
}

// Field names a validation metric attached to an epoch record.
type Field string

const (
	FieldValidationLoss Field = "validation_loss"
	FieldValidationF1   Field = "validation_f1"
)

// DropReason explains why a validation value found no epoch record.
type DropReason string

const (
	DropNoRecords       DropReason = "no_records"
	DropNotEpochEnd     DropReason = "not_epoch_end"
	DropContextMismatch DropReason = "context_mismatch"
)

// DroppedValue is a validation value that could not be attached.
type DroppedValue struct {
	Line   int        `json:"line"`
	Field  Field      `json:"field"`
	Value  float64    `json:"value"`
	Reason DropReason `json:"reason"`
}

// Float returns a pointer to v, for building optional metric fields.
func Float(v float64) *float64 {
	return &v
}
