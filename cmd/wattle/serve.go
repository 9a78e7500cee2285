package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/wattle/internal/cli"
	httpadapter "github.com/aretw0/wattle/pkg/adapters/http"
	"github.com/aretw0/wattle/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the wattle engine in server mode, exposing the built-in graphs over
a JSON API with step streaming, stored run traces and Prometheus metrics on
/metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		stepLimit, _ := cmd.Flags().GetInt("step-limit")
		runTimeout, _ := cmd.Flags().GetDuration("run-timeout")
		redisAddr, _ := cmd.Flags().GetString("redis")
		traceDir, _ := cmd.Flags().GetString("trace-dir")

		logger := rootLogger(cmd)

		graphs, err := cli.Demos()
		if err != nil {
			fmt.Printf("Error building graphs: %v\n", err)
			os.Exit(1)
		}

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)

		engine, err := cli.BuildEngine(cmd.Context(), logger, redisAddr, traceDir, metrics.Hooks())
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		handler := httpadapter.NewHandler(engine, graphs,
			httpadapter.WithLogger(logger),
			httpadapter.WithStepLimit(stepLimit),
			httpadapter.WithRunTimeout(runTimeout),
		)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.Handle("/", handler)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Wattle Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Wattle Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Int("step-limit", 0, "Server-wide cap on steps per run (0 = unbounded)")
	serveCmd.Flags().Duration("run-timeout", 0, "Wall-clock budget per run (0 = none)")
	serveCmd.Flags().String("redis", "", "Redis address for trace storage (empty = in-memory)")
	serveCmd.Flags().String("trace-dir", "", "Directory for trace files (ignored when --redis is set)")
}
