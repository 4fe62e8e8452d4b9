package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/pkg/metrics"
)

var metricsAddrFlag string

// canteen metrics --addr :9100 exposes the client's counters until Ctrl+C.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: metricsAddrFlag, Handler: r, ReadHeaderTimeout: 5 * time.Second}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s/metrics. Press Ctrl+C to stop.\n", metricsAddrFlag)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAddrFlag, "addr", ":9100", "listen address")
}
