package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/cli"
	"github.com/ppiankov/neurofold/internal/cloud"
	"github.com/ppiankov/neurofold/internal/export"
	"github.com/ppiankov/neurofold/internal/report"
)

func newExportCmd() *cobra.Command {
	var (
		datasetStr string
		formatStr  string
		outPath    string
		toURL      string
		patterns   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "export <src>",
		Short: "Export lines or metric series to Parquet, CSV, or JSONL",
		Long:  "Write one dataset of a parsed log for analytics tools (DuckDB, pandas, BigQuery). A .zst suffix on --out compresses CSV and JSONL output; --to uploads the file to S3 or GCS.",
		Args:  exactArgs(1, "one log source"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0], datasetStr, formatStr, outPath, toURL, patterns, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&datasetStr, "dataset", "metrics", "dataset: lines, metrics, steps, epochs")
	cmd.Flags().StringVar(&formatStr, "format", "", "output format: parquet, csv, jsonl (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file path (required)")
	cmd.Flags().StringVar(&toURL, "to", "", "upload destination (s3://bucket/prefix or gs://bucket/prefix)")
	cmd.Flags().StringVar(&patterns, "patterns", "", "YAML file of extra classification rules")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output summary as JSON")

	return cmd
}

func runExport(ctx context.Context, src, datasetStr, formatStr, outPath, toURL, patterns string, jsonOutput bool) error {
	if formatStr == "" {
		return cli.NewUsageError("--format is required")
	}
	if outPath == "" {
		return cli.NewUsageError("--out is required")
	}
	format, err := export.ParseFormat(formatStr)
	if err != nil {
		return cli.NewUsageError(err.Error())
	}
	dataset, err := export.ParseDataset(datasetStr)
	if err != nil {
		return cli.NewUsageError(err.Error())
	}

	var dest cloud.Location
	if toURL != "" {
		if dest, err = cloud.ParseURL(toURL); err != nil {
			return cli.NewUsageError(fmt.Sprintf("invalid --to: %v", err))
		}
	}

	res, err := parseSource(ctx, src, patterns)
	if err != nil {
		return err
	}

	stats, err := export.Export(res, outPath, dataset, format)
	if err != nil {
		return err
	}

	var uploaded string
	if toURL != "" {
		target := dest.Join(filepath.Base(outPath))
		if err := upload(ctx, target, outPath); err != nil {
			return err
		}
		uploaded = target.String()
	}

	if jsonOutput {
		summary := map[string]any{
			"source":  src,
			"dataset": dataset,
			"format":  format,
			"output":  outPath,
			"rows":    stats.Rows,
			"bytes":   stats.Bytes,
		}
		if uploaded != "" {
			summary["uploaded"] = uploaded
		}
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Fprintf(os.Stderr, "Exported: %s %s rows -> %s (%s)\n",
		report.FormatCount(stats.Rows), dataset, outPath, formatBytes(stats.Bytes))
	if uploaded != "" {
		fmt.Fprintf(os.Stderr, "Uploaded: %s\n", uploaded)
	}
	return nil
}

func upload(ctx context.Context, target cloud.Location, path string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	backend, err := cloud.NewBackend(ctx, target.Scheme, target.Bucket)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", target.Scheme, err)
	}
	if _, err := cloud.UploadFile(ctx, backend, path, target.Key); err != nil {
		return fmt.Errorf("upload %s: %w", target, err)
	}
	return nil
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
