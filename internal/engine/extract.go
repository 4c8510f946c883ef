package engine

import (
	"regexp"
	"strconv"

	"github.com/ppiankov/neurofold/internal/logtypes"
)

const num = `(\d*\.?\d+(?:[eE][-+]?\d+)?)`

var (
	stepRe      = regexp.MustCompile(`Step (\d+)/\d+ \| Loss: ` + num)
	trainLossRe = regexp.MustCompile(`Train loss:\s*` + num)
	valLossRe   = regexp.MustCompile(`Val loss:\s*` + num)
	valF1Re     = regexp.MustCompile(`Val F1.*:\s*` + num)
	oofF1Re     = regexp.MustCompile(`Best OOF F1:\s*` + num)
	thresholdRe = regexp.MustCompile(`threshold\s*` + num)
)

// extractor turns relevant lines into metric records.
//
// open maps a (fold, epoch) context to the index of the epoch record that may
// still receive validation values. Any append clears it, so only the record
// appended last can be open.
type extractor struct {
	records []logtypes.MetricRecord
	open    map[Context]int
	dropped []logtypes.DroppedValue
}

func newExtractor() *extractor {
	return &extractor{
		records: []logtypes.MetricRecord{},
		dropped: []logtypes.DroppedValue{},
		open:    make(map[Context]int),
	}
}

// extract applies the step, train, validation and summary patterns to msg.
func (x *extractor) extract(line int, ts float64, ctx Context, msg string, sum *aggregator) {
	if m := oofF1Re.FindStringSubmatch(msg); m != nil {
		if v, ok := parseNum(m[1]); ok {
			var th *float64
			if tm := thresholdRe.FindStringSubmatch(msg); tm != nil {
				if t, ok := parseNum(tm[1]); ok {
					th = &t
				}
			}
			sum.recordOOF(v, th)
		}
	}

	if m := stepRe.FindStringSubmatch(msg); m != nil {
		step, err := strconv.Atoi(m[1])
		loss, ok := parseNum(m[2])
		if err == nil && ok {
			x.append(logtypes.MetricRecord{
				Timestamp: ts,
				Fold:      ctx.Fold,
				Epoch:     ctx.Epoch,
				Step:      step,
				TrainLoss: &loss,
				Kind:      logtypes.KindStep,
			})
		}
	}

	if m := trainLossRe.FindStringSubmatch(msg); m != nil {
		if loss, ok := parseNum(m[1]); ok {
			x.append(logtypes.MetricRecord{
				Timestamp: ts,
				Fold:      ctx.Fold,
				Epoch:     ctx.Epoch,
				TrainLoss: &loss,
				Kind:      logtypes.KindEpochEnd,
			})
		}
	}

	if m := valLossRe.FindStringSubmatch(msg); m != nil {
		if v, ok := parseNum(m[1]); ok {
			x.attach(line, ctx, logtypes.FieldValidationLoss, v)
		}
	}

	if m := valF1Re.FindStringSubmatch(msg); m != nil {
		if v, ok := parseNum(m[1]); ok {
			x.attach(line, ctx, logtypes.FieldValidationF1, v)
		}
	}
}

func (x *extractor) append(rec logtypes.MetricRecord) {
	clear(x.open)
	x.records = append(x.records, rec)
	if rec.Kind == logtypes.KindEpochEnd {
		x.open[Context{Fold: rec.Fold, Epoch: rec.Epoch}] = len(x.records) - 1
	}
}

func (x *extractor) attach(line int, ctx Context, field logtypes.Field, v float64) {
	idx, ok := x.open[ctx]
	if !ok {
		x.dropped = append(x.dropped, logtypes.DroppedValue{
			Line:   line,
			Field:  field,
			Value:  v,
			Reason: x.dropReason(),
		})
		return
	}

	rec := &x.records[idx]
	switch field {
	case logtypes.FieldValidationLoss:
		rec.ValidationLoss = &v
	case logtypes.FieldValidationF1:
		rec.ValidationF1 = &v
	}
}

// dropReason describes why the last appended record could not take a value.
func (x *extractor) dropReason() logtypes.DropReason {
	if len(x.records) == 0 {
		return logtypes.DropNoRecords
	}
	if x.records[len(x.records)-1].Kind != logtypes.KindEpochEnd {
		return logtypes.DropNotEpochEnd
	}
	return logtypes.DropContextMismatch
}

func parseNum(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
