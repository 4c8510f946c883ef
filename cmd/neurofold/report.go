package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/report"
	"github.com/ppiankov/neurofold/internal/source"
)

func newReportCmd() *cobra.Command {
	var (
		jsonOutput bool
		htmlPath   string
		patterns   string
	)

	cmd := &cobra.Command{
		Use:   "report <src>",
		Short: "Summarize a run: headline stats and per-fold comparison",
		Args:  exactArgs(1, "one log source"),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseSource(cmd.Context(), args[0], patterns)
			if err != nil {
				return err
			}
			rep := report.Build(source.Label(args[0]), res)

			if htmlPath != "" {
				if err := writeHTMLReport(rep, htmlPath); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Report written to %s\n", htmlPath)
			}
			if jsonOutput {
				return rep.WriteJSON(os.Stdout)
			}
			return rep.WriteText(os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output report as JSON")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write an HTML report to this path")
	cmd.Flags().StringVar(&patterns, "patterns", "", "YAML file of extra classification rules")

	return cmd
}

func writeHTMLReport(rep *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := rep.WriteHTML(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write html report: %w", err)
	}
	return f.Close()
}
