package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/cli"
	"github.com/ppiankov/neurofold/internal/config"
)

var version = "dev"

const defaultTimeout = 30 * time.Second

var (
	cfg        *config.Config
	configPath string
	timeoutStr string
	jsonErrors bool
)

func main() {
	if err := execute(); err != nil {
		cli.FormatError(os.Stderr, err, jsonErrors)
		os.Exit(cli.ExitCode(err))
	}
}

func execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "neurofold",
		Short:         "Extract training metrics from cross-validation logs",
		Long:          "Parse noisy fold/epoch training logs into clean line views, metric series, run summaries and per-fold reports.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			applyConfigDefaults(cmd)
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cli.NewUsageError(err.Error())
	})

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.neurofold/config.yaml, ./.neurofold.yaml)")
	root.PersistentFlags().StringVar(&timeoutStr, "timeout", "", "timeout for remote sources (default 30s)")
	root.PersistentFlags().BoolVar(&jsonErrors, "json-errors", false, "print errors as JSON")

	root.AddCommand(newParseCmd())
	root.AddCommand(newLinesCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newLsCmd())
	return root
}

func loadConfig() error {
	if configPath == "" {
		cfg = config.Load()
		return nil
	}
	c, err := config.LoadFrom(configPath)
	if err != nil {
		return cli.NewUsageError("load config: " + err.Error())
	}
	cfg = c
	return nil
}
