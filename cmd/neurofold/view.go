package main

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/source"
	"github.com/ppiankov/neurofold/internal/view"
)

func newViewCmd() *cobra.Command {
	var patterns string

	cmd := &cobra.Command{
		Use:   "view <src>",
		Short: "Browse a training log interactively",
		Long:  "Interactive view of the relevant lines. Keys: a toggle all lines, / search, n/N next/previous match, j/k scroll, d/u half page, gg/G top/bottom, q quit.",
		Args:  exactArgs(1, "one log source"),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseSource(cmd.Context(), args[0], patterns)
			if err != nil {
				return err
			}
			return view.Run(res, source.Label(args[0]))
		},
	}

	cmd.Flags().StringVar(&patterns, "patterns", "", "YAML file of extra classification rules")

	return cmd
}
