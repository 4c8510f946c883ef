package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/view"
)

func newLinesCmd() *cobra.Command {
	var (
		all      bool
		noColor  bool
		patterns string
	)

	cmd := &cobra.Command{
		Use:   "lines <src>",
		Short: "Print the relevant lines of a training log",
		Args:  exactArgs(1, "one log source"),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseSource(cmd.Context(), args[0], patterns)
			if err != nil {
				return err
			}
			lines := res.RelevantLines()
			if all {
				lines = res.Lines
			}
			return view.WriteLines(os.Stdout, lines, !noColor)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print every line, not only relevant ones")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable styling")
	cmd.Flags().StringVar(&patterns, "patterns", "", "YAML file of extra classification rules")

	return cmd
}
