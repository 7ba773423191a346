package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/tower/internal/cli"
	httpAdapter "github.com/aretw0/tower/pkg/adapters/http"
	"github.com/aretw0/tower/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the definitions in --dir over a JSON API, with SSE progress events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		quiet, _ := cmd.Flags().GetBool("quiet")

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)
		streams := httpAdapter.NewStreamManager()

		eng, closer, err := openEngine(metrics.Hooks(), streams.Hooks())
		if err != nil {
			return err
		}
		defer closer()

		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(eng,
				httpAdapter.WithStreams(streams),
				httpAdapter.WithGatherer(reg),
				httpAdapter.WithLogger(logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		term := cli.NewTerminal(os.Stdout, settings.Theme)
		if !quiet {
			term.Banner()
		}

		serverErrors := make(chan error, 1)
		go func() {
			term.Printf("Starting Tower Server on %s\n", srv.Addr)
			term.Printf("Serving columns from: %s\n", settings.Dir)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil

		case <-ctx.Done():
			term.Printf("\nStart shutdown... Signal: %v\n", ctx.Signal())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				_ = srv.Close()
			}
			eng.Wait()
			term.Printf("Tower Server stopped gracefully\n")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Skip the banner")
}
