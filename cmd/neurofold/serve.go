package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/neurofold/internal/metrics"
	"github.com/ppiankov/neurofold/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		listen   string
		patterns string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over HTTP",
		Long:  "POST /api/v1/parse and /api/v1/report accept a raw log body (up to 10MB). /metrics exposes Prometheus metrics.",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(listen, patterns)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":9200", "address to listen on")
	cmd.Flags().StringVar(&patterns, "patterns", "", "YAML file of extra classification rules")

	return cmd
}

func runServe(listen, patterns string) error {
	eng, err := newEngine(patterns)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	srv := server.New(listen, eng, m, prometheus.DefaultGatherer)
	srv.SetVersion(version)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Fprintf(os.Stderr, "neurofold serve listening on %s\n", listen)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-sigCh:
	}

	fmt.Fprintln(os.Stderr, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
