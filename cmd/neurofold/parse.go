package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/ppiankov/neurofold/internal/cli"
	"github.com/ppiankov/neurofold/internal/engine"
)

func newParseCmd() *cobra.Command {
	var (
		formatStr string
		relevant  bool
		patterns  string
	)

	cmd := &cobra.Command{
		Use:   "parse <src>",
		Short: "Parse a training log into lines, metric records and a run summary",
		Long:  "Parse a log and print the full result as JSON or YAML. <src> is a path, - for stdin, s3://, gs:// or pod://namespace/name[/container].",
		Args:  exactArgs(1, "one log source"),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseSource(cmd.Context(), args[0], patterns)
			if err != nil {
				return err
			}
			if relevant {
				res = res.OnlyRelevant()
			}
			return writeResult(os.Stdout, res, formatStr)
		},
	}

	cmd.Flags().StringVar(&formatStr, "format", "json", "output format: json, yaml")
	cmd.Flags().BoolVar(&relevant, "relevant", false, "keep only relevant lines")
	cmd.Flags().StringVar(&patterns, "patterns", "", "YAML file of extra classification rules")

	return cmd
}

func writeResult(w io.Writer, res *engine.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		data, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return cli.NewUsageError(fmt.Sprintf("unsupported format %q: expected json or yaml", format))
	}
}
