package logtypes

import (
	"encoding/json"
	"testing"
)

func TestMetricRecord_JSONOmitsAbsentValues(t *testing.T) {
	rec := MetricRecord{
		Timestamp: 168.4,
		Fold:      1,
		Epoch:     1,
		Step:      100,
		TrainLoss: Float(0.3754),
		Kind:      KindStep,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}

	if _, ok := m["validation_loss"]; ok {
		t.Error("expected validation_loss to be omitted when nil")
	}
	if _, ok := m["validation_f1"]; ok {
		t.Error("expected validation_f1 to be omitted when nil")
	}
	if m["kind"] != "step" {
		t.Errorf("kind = %v, want step", m["kind"])
	}
	if m["train_loss"] != 0.3754 {
		t.Errorf("train_loss = %v, want 0.3754", m["train_loss"])
	}
}

func TestRunSummary_JSONFieldNames(t *testing.T) {
	s := RunSummary{
		RunDurationSeconds: 2814.7,
		BestOutOfFoldF1:    Float(0.8072),
		BestThreshold:      Float(0.59),
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"run_duration_seconds":2814.7,"best_oof_f1":0.8072,"best_threshold":0.59}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestFloat(t *testing.T) {
	a := Float(1.5)
	b := Float(1.5)
	if a == b {
		t.Error("expected distinct pointers")
	}
	if *a != 1.5 {
		t.Errorf("*a = %v, want 1.5", *a)
	}
}
