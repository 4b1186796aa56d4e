package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/internal/cli"
	httpAdapter "github.com/aretw0/reschema/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/reschema/pkg/adapters/mcp"
	"github.com/aretw0/reschema/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP or MCP server",
	Long: `Serves the demo schemas as a JSON API with persistent sessions and Prometheus metrics.

With --mcp the engine is served as Model Context Protocol tools instead:
- stdio (default): Standard Input/Output, for local agent integration.
- sse: Server-Sent Events over HTTP on the configured address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		engine, backend, err := cli.NewEngine(cfg, logger, metrics.Hooks())
		if err != nil {
			return err
		}
		defer backend.Close()

		if useMCP, _ := cmd.Flags().GetBool("mcp"); useMCP {
			transport, _ := cmd.Flags().GetString("transport")
			return serveMCP(cfg.HTTP.Addr, transport, mcpAdapter.NewServer(engine,
				mcpAdapter.WithLogger(logger),
				mcpAdapter.WithRequestTimeout(cfg.HTTP.RequestTimeout),
			))
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		}
		if cfg.HTTP.MetricsPath != "" {
			opts = append(opts, httpAdapter.WithMetrics(cfg.HTTP.MetricsPath, promhttp.Handler()))
		}

		srv := &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      httpAdapter.NewHandler(engine, opts...),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting reschema server", "addr", srv.Addr, "driver", cfg.Persistence.Driver, "version", strings.TrimSpace(reschema.Version))
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					return err
				}
			}
			logger.Info("reschema server stopped gracefully")
			return nil
		}
	},
}

func serveMCP(addr, transport string, srv *mcpAdapter.Server) error {
	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return srv.ServeSSE(sigCtx, addr, baseURL(addr))
	default:
		return fmt.Errorf("unknown transport %q: supported are stdio, sse", transport)
	}
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().Bool("mcp", false, "Serve Model Context Protocol tools instead of the JSON API")
	serveCmd.Flags().String("transport", "stdio", "MCP transport: 'stdio' or 'sse'")
}
