package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/cli"
	"github.com/ppiankov/neurofold/internal/engine"
	"github.com/ppiankov/neurofold/internal/source"
)

// opContext returns a context bounded by the configured timeout for remote
// sources and uploads. The caller must call cancel when done.
func opContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, resolveTimeout())
}

func resolveTimeout() time.Duration {
	// flag overrides config
	if timeoutStr != "" {
		if d, err := time.ParseDuration(timeoutStr); err == nil {
			return d
		}
	} else if cfg != nil && cfg.Defaults.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Defaults.Timeout); err == nil {
			return d
		}
	}
	return defaultTimeout
}

// applyConfigDefaults sets flag values from config when the flag was not
// set on the command line. Flags > env > config > defaults; the config
// package already layers env over files.
func applyConfigDefaults(cmd *cobra.Command) {
	if cfg == nil {
		return
	}

	setDefault := func(name, value string) {
		if value != "" && !cmd.Flags().Changed(name) {
			if f := cmd.Flags().Lookup(name); f != nil {
				_ = f.Value.Set(value)
			}
		}
	}

	setDefault("patterns", cfg.Parse.Patterns)

	switch cmd.Name() {
	case "parse":
		setDefault("format", cfg.Parse.Format)
	case "export":
		setDefault("format", cfg.Export.Format)
		setDefault("dataset", cfg.Export.Dataset)
		setDefault("to", cfg.Export.To)
	case "serve":
		setDefault("listen", cfg.Serve.Addr)
	}
}

func verbose() bool {
	return cfg != nil && cfg.Defaults.Verbose
}

func verbosef(format string, args ...any) {
	if verbose() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return cli.NewUsageError(fmt.Sprintf("expected %s", usage))
		}
		return nil
	}
}

// newEngine builds an engine with built-in rules plus the rules file at
// patterns, if any.
func newEngine(patterns string) (*engine.Engine, error) {
	var opts []engine.Option
	if patterns != "" {
		rules, err := engine.LoadRules(patterns)
		if err != nil {
			return nil, cli.NewUsageError(fmt.Sprintf("load patterns: %v", err))
		}
		opts = append(opts, engine.WithRules(rules))
		verbosef("loaded %d custom rules from %s\n", len(rules), patterns)
	}
	eng, err := engine.New(opts...)
	if err != nil {
		return nil, cli.NewUsageError(err.Error())
	}
	return eng, nil
}

// parseSource reads the log at src and parses it.
func parseSource(ctx context.Context, src, patterns string) (*engine.Result, error) {
	eng, err := newEngine(patterns)
	if err != nil {
		return nil, err
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	var opener source.Opener
	rc, err := opener.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	start := time.Now()
	res, err := eng.ParseReader(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source.Label(src), err)
	}
	verbosef("parsed %s: %d lines, %d records in %s\n",
		source.Label(src), len(res.Lines), len(res.Metrics), time.Since(start).Round(time.Millisecond))
	return res, nil
}
