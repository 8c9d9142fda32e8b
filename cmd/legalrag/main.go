package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/legalrag/pkg/logging"
	"github.com/sweetpotato0/legalrag/pkg/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath   string
	logFormat    string
	logLevel     string
	otelEndpoint string
	trace        bool
}

var opts rootOptions

var rootCmd = &cobra.Command{
	Use:   "legalrag",
	Short: "Grounded question answering over Brazilian consumer and constitutional law",
	Long: `legalrag answers legal questions with a fixed pipeline: triage, query rewriting,
evidence retrieval, grounded answering, faithfulness verification, remediation and
a mandatory legal disclaimer.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logging.SetLogger(logging.New(os.Stderr, opts.logFormat, opts.logLevel))
	},
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("LEGALRAG_CONFIG"), "YAML config file")
	flags.StringVar(&opts.logFormat, "log-format", envOr("LEGALRAG_LOG_FORMAT", "text"), "log format: text or json")
	flags.StringVar(&opts.logLevel, "log-level", envOr("LEGALRAG_LOG_LEVEL", "warn"), "log level: debug, info, warn or error")
	flags.StringVar(&opts.otelEndpoint, "otel-endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP gRPC collector address")
	flags.BoolVar(&opts.trace, "trace", false, "write spans to stderr when no collector is configured")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initTelemetry(ctx context.Context) (func(context.Context) error, error) {
	return telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "legalrag",
		ServiceVersion: version,
		Disable:        opts.otelEndpoint == "" && !opts.trace,
		Endpoint:       opts.otelEndpoint,
		Stdout:         os.Stderr,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
