package export

import (
	"fmt"
	"os"

	"github.com/ppiankov/neurofold/internal/engine"
	"github.com/ppiankov/neurofold/internal/logtypes"
)

// Format identifies the output format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
)

// Dataset selects which part of a parse result is exported.
type Dataset string

const (
	DatasetLines   Dataset = "lines"
	DatasetMetrics Dataset = "metrics"
	DatasetSteps   Dataset = "steps"
	DatasetEpochs  Dataset = "epochs"
)

// Writer writes rows of one type to an output file.
type Writer[T any] interface {
	Write(T) error
	Close() error
}

// Stats describes a finished export.
type Stats struct {
	Rows  int64 `json:"rows"`
	Bytes int64 `json:"bytes"`
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatParquet, FormatCSV, FormatJSONL:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported format %q: expected parquet, csv, or jsonl", s)
	}
}

// ParseDataset validates a dataset name.
func ParseDataset(s string) (Dataset, error) {
	switch Dataset(s) {
	case DatasetLines, DatasetMetrics, DatasetSteps, DatasetEpochs:
		return Dataset(s), nil
	default:
		return "", fmt.Errorf("unsupported dataset %q: expected lines, metrics, steps, or epochs", s)
	}
}

// Export writes one dataset of res to dst. A ".zst" suffix on dst compresses
// CSV and JSONL output with zstd; Parquet pages are always zstd-compressed.
func Export(res *engine.Result, dst string, dataset Dataset, format Format) (Stats, error) {
	var (
		rows int64
		err  error
	)
	switch dataset {
	case DatasetLines:
		rows, err = writeAll(res.Lines, func() (Writer[logtypes.AnnotatedLine], error) {
			return newLineWriter(dst, format)
		})
	case DatasetMetrics:
		rows, err = writeAll(res.Metrics, func() (Writer[logtypes.MetricRecord], error) {
			return newMetricWriter(dst, format)
		})
	case DatasetSteps:
		rows, err = writeAll(res.MetricsByKind(logtypes.KindStep), func() (Writer[logtypes.MetricRecord], error) {
			return newMetricWriter(dst, format)
		})
	case DatasetEpochs:
		rows, err = writeAll(res.MetricsByKind(logtypes.KindEpochEnd), func() (Writer[logtypes.MetricRecord], error) {
			return newMetricWriter(dst, format)
		})
	default:
		return Stats{}, fmt.Errorf("unsupported dataset: %q", dataset)
	}
	if err != nil {
		return Stats{}, err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Stats{}, fmt.Errorf("stat output: %w", err)
	}
	return Stats{Rows: rows, Bytes: info.Size()}, nil
}

func writeAll[T any](items []T, open func() (Writer[T], error)) (int64, error) {
	w, err := open()
	if err != nil {
		return 0, fmt.Errorf("create writer: %w", err)
	}

	var written int64
	for _, item := range items {
		if err := w.Write(item); err != nil {
			_ = w.Close()
			return written, fmt.Errorf("write row %d: %w", written, err)
		}
		written++
	}

	if err := w.Close(); err != nil {
		return written, fmt.Errorf("close writer: %w", err)
	}
	return written, nil
}

func newLineWriter(path string, format Format) (Writer[logtypes.AnnotatedLine], error) {
	switch format {
	case FormatParquet:
		return newParquetWriter(path, toParquetLine)
	case FormatCSV:
		return newCSVWriter(path, lineHeader, lineRow)
	case FormatJSONL:
		return newJSONLWriter[logtypes.AnnotatedLine](path)
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}
}

func newMetricWriter(path string, format Format) (Writer[logtypes.MetricRecord], error) {
	switch format {
	case FormatParquet:
		return newParquetWriter(path, toParquetMetric)
	case FormatCSV:
		return newCSVWriter(path, metricHeader, metricRow)
	case FormatJSONL:
		return newJSONLWriter[logtypes.MetricRecord](path)
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}
}
