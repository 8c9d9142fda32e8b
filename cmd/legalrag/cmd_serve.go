package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/legalrag/mcp"
)

var (
	serveTransport   string
	serveAddr        string
	serveMetricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the pipeline as MCP tools over stdio or streamable HTTP",
	Long: `Starts an MCP server with the ask_legal_question tool, plus recent_runs when the
journal is configured. With --transport http the MCP endpoint is served at /mcp and
Prometheus metrics at /metrics on --addr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "stdio", "stdio or http")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address for the http transport")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "separate Prometheus listen address for the stdio transport")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	shutdown, err := initTelemetry(ctx)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	a, err := newApp(ctx, opts.configPath)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	serverOpts := []mcp.Option{mcp.WithImplementation("legalrag", version)}
	if a.history != nil {
		serverOpts = append(serverOpts, mcp.WithHistory(a.history))
	}
	server := mcp.NewServer(a.asker, serverOpts...)

	switch serveTransport {
	case "stdio":
		if serveMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", a.metrics.Handler())
			go func() {
				if err := listen(ctx, serveMetricsAddr, mux); err != nil {
					a.logger.Error("metrics server stopped", "error", err)
				}
			}()
		}
		a.logger.Info("serving MCP over stdio")
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	case "http":
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcp.Handler(server))
		mux.Handle("/metrics", a.metrics.Handler())
		a.logger.Info("serving MCP over streamable HTTP", "addr", serveAddr)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP endpoint at http://%s/mcp\n", serveAddr)
		return listen(ctx, serveAddr, mux)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", serveTransport)
	}
}

// listen serves handler until ctx is done, then shuts down gracefully.
func listen(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
