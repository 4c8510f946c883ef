package export

import (
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/ppiankov/neurofold/internal/logtypes"
)

const parquetBatchSize = 50000

// parquetLine is the Parquet schema for annotated lines.
type parquetLine struct {
	Index     int64   `parquet:"index"`
	Timestamp float64 `parquet:"timestamp"`
	LogIndex  int64   `parquet:"log_index"`
	Relevant  bool    `parquet:"relevant"`
	Rule      string  `parquet:"rule,dict"`
	Message   string  `parquet:"message"`
	Raw       string  `parquet:"raw"`
}

// parquetMetric is the Parquet schema for metric records.
type parquetMetric struct {
	Timestamp      float64  `parquet:"timestamp"`
	Kind           string   `parquet:"kind,dict"`
	Fold           int64    `parquet:"fold"`
	Epoch          int64    `parquet:"epoch"`
	Step           int64    `parquet:"step"`
	TrainLoss      *float64 `parquet:"train_loss,optional"`
	ValidationLoss *float64 `parquet:"validation_loss,optional"`
	ValidationF1   *float64 `parquet:"validation_f1,optional"`
}

func toParquetLine(l logtypes.AnnotatedLine) parquetLine {
	return parquetLine{
		Index:     int64(l.Index),
		Timestamp: l.Timestamp,
		LogIndex:  int64(l.LogIndex),
		Relevant:  l.Relevant,
		Rule:      l.Rule,
		Message:   l.Message,
		Raw:       l.Raw,
	}
}

func toParquetMetric(m logtypes.MetricRecord) parquetMetric {
	return parquetMetric{
		Timestamp:      m.Timestamp,
		Kind:           string(m.Kind),
		Fold:           int64(m.Fold),
		Epoch:          int64(m.Epoch),
		Step:           int64(m.Step),
		TrainLoss:      m.TrainLoss,
		ValidationLoss: m.ValidationLoss,
		ValidationF1:   m.ValidationF1,
	}
}

type parquetWriter[T, P any] struct {
	file    *os.File
	writer  *parquet.GenericWriter[P]
	convert func(T) P
	batch   []P
}

func newParquetWriter[T, P any](path string, convert func(T) P) (*parquetWriter[T, P], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := parquet.NewGenericWriter[P](f,
		parquet.Compression(&zstd.Codec{}),
	)

	return &parquetWriter[T, P]{
		file:    f,
		writer:  w,
		convert: convert,
		batch:   make([]P, 0, 1024),
	}, nil
}

func (w *parquetWriter[T, P]) Write(v T) error {
	w.batch = append(w.batch, w.convert(v))
	if len(w.batch) >= parquetBatchSize {
		return w.flush()
	}
	return nil
}

func (w *parquetWriter[T, P]) flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	_, err := w.writer.Write(w.batch)
	w.batch = w.batch[:0]
	return err
}

func (w *parquetWriter[T, P]) Close() error {
	if err := w.flush(); err != nil {
		_ = w.writer.Close()
		_ = w.file.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
