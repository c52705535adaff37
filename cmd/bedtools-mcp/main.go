package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bio-mcp/bedtools-mcp/pkg/config"
	"github.com/bio-mcp/bedtools-mcp/pkg/pipeline"
	"github.com/bio-mcp/bedtools-mcp/pkg/runner"
	mcpserver "github.com/bio-mcp/bedtools-mcp/pkg/server"
	"github.com/bio-mcp/bedtools-mcp/pkg/telemetry"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"
	// GitCommit is the git commit SHA at build time
	GitCommit = "unknown"
	// BuildTime is the time of the build
	BuildTime = "unknown"
)

func getVersion() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// serveFlags holds the command line overrides for the server
type serveFlags struct {
	envFile       string
	maxFileSize   int64
	timeoutSecs   int
	bedtoolsPath  string
	tempDir       string
	transportType string
	httpAddr      string
	logLevel      string
	telemetry     bool
	telemetryAddr string
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}

func Execute() error {
	flags := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:          "bedtools-mcp",
		Short:        "MCP server exposing bedtools interval operations",
		Long:         `bedtools-mcp serves the bedtools intersect, merge, and sort operations as MCP tools over stdio or streamable HTTP.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.envFile, "env-file", "", "Path to an env file with BIO_MCP_* settings")
	f.Int64Var(&flags.maxFileSize, "max-file-size", 0, "Maximum input file size in bytes")
	f.IntVar(&flags.timeoutSecs, "timeout", 0, "Command timeout in seconds")
	f.StringVar(&flags.bedtoolsPath, "bedtools-path", "", "Path to the bedtools executable")
	f.StringVar(&flags.tempDir, "temp-dir", "", "Staging root directory (default: system temp)")
	f.StringVar(&flags.transportType, "transport", "", "Transport type (stdio, http)")
	f.StringVar(&flags.httpAddr, "http-addr", "", "HTTP listen address")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.BoolVar(&flags.telemetry, "telemetry", false, "Enable the Prometheus metrics endpoint")
	f.StringVar(&flags.telemetryAddr, "telemetry-addr", "", "Prometheus metrics listen address")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDoctorCmd(flags))

	return rootCmd.Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bedtools-mcp %s\n", getVersion())
		},
	}
}

// loadConfig builds the effective configuration: defaults, env file,
// environment, then flag overrides.
func loadConfig(flags *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, err
	}

	if flags.maxFileSize > 0 {
		cfg.MaxFileSize = flags.maxFileSize
	}
	if flags.timeoutSecs > 0 {
		cfg.Timeout = time.Duration(flags.timeoutSecs) * time.Second
	}
	if flags.bedtoolsPath != "" {
		cfg.BedtoolsPath = flags.bedtoolsPath
	}
	if flags.tempDir != "" {
		cfg.TempDir = flags.tempDir
	}
	if flags.transportType != "" {
		cfg.Transport = flags.transportType
	}
	if flags.httpAddr != "" {
		cfg.HTTPAddr = flags.httpAddr
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.telemetry {
		cfg.TelemetryEnabled = true
	}
	if flags.telemetryAddr != "" {
		cfg.TelemetryAddr = flags.telemetryAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(flags *serveFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure server")
		return err
	}

	setupLogging(cfg.LogLevel)
	slogLogger := newSlogLogger(cfg.LogLevel)

	log.Info().
		Str("version", getVersion()).
		Str("transport", cfg.Transport).
		Int64("max_file_size", cfg.MaxFileSize).
		Int("timeout_seconds", cfg.TimeoutSeconds()).
		Str("bedtools_path", cfg.BedtoolsPath).
		Str("staging_root", cfg.StagingRoot()).
		Bool("telemetry", cfg.TelemetryEnabled).
		Msg("Starting bio-mcp-bedtools server")

	var metrics *telemetry.Metrics
	if cfg.TelemetryEnabled {
		metrics = telemetry.NewMetrics(slogLogger, "")
		go func() {
			if err := metrics.Serve(cfg.TelemetryAddr); err != nil {
				log.Error().Err(err).Msg("Telemetry endpoint failed")
			}
		}()
	}

	janitor := pipeline.NewJanitor(cfg.StagingRoot(), cfg.StageTTL, slogLogger)
	if err := janitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start staging janitor")
		return err
	}
	defer janitor.Stop()

	srv, err := mcpserver.New(cfg, getVersion(), runner.NewDefaultCommandRunner(slogLogger), slogLogger, metrics)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create server")
		return err
	}

	return runServerWithShutdown(srv, metrics)
}

// setupLogging configures the global zerolog logger. Everything goes to
// stderr: stdout belongs to the MCP stdio transport.
func setupLogging(logLevel string) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// newSlogLogger creates the structured logger injected into components
func newSlogLogger(logLevel string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseSlogLevel(logLevel),
	})
	return slog.New(handler)
}

func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runServerWithShutdown runs the server with graceful shutdown handling
func runServerWithShutdown(srv *mcpserver.Server, metrics *telemetry.Metrics) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(context.Background()); err != nil {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during server shutdown")
		}
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during telemetry shutdown")
		}

		// Wait a moment for final logs to be written
		time.Sleep(100 * time.Millisecond)
		return nil

	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
		return err
	}
}
