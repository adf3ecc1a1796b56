package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aviro092/servicenow-mcp-server/internal/auth"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/internal/server"
	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
	"github.com/aviro092/servicenow-mcp-server/internal/tools"
	"github.com/aviro092/servicenow-mcp-server/pkg/logging"
)

// serveConfigPath points at an optional YAML configuration file.
// Environment variables override file values either way.
var serveConfigPath string

// serveTransport, serveHost, and servePort override the configured
// listening surface from the command line.
var (
	serveTransport string
	serveHost      string
	servePort      int
)

// serveDebug forces debug-level logging regardless of configuration.
var serveDebug bool

// serveCmd starts the MCP server on the configured transport.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ServiceNow MCP server",
	Long: `Starts the MCP server on the configured transport.

Transports:
  stdio            Serve a single client over stdin/stdout (default).
                   Logs go to stderr so the protocol stream stays clean.
  sse              HTTP server with /sse and /message endpoints.
  streamable-http  HTTP server with a /mcp endpoint.

The HTTP transports also expose /healthz for liveness probes.

Configuration is loaded from defaults, then the optional --config YAML
file, then SERVICENOW_* / MCP_* environment variables, with later
layers winning.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	if serveDebug {
		level = logging.LevelDebug
	}
	// Stdout belongs to the stdio transport; logs always go to stderr.
	logging.Init(level, os.Stderr)

	var verifier auth.Verifier
	if cfg.Auth.Enabled {
		verifier, err = auth.NewVerifier(cfg.Auth)
		if err != nil {
			return fmt.Errorf("configuring authentication: %w", err)
		}
		logging.Info("Main", "Caller authentication enabled (%s mode)", cfg.Auth.Mode)
	} else {
		logging.Warn("Main", "Caller authentication is DISABLED, all tools are open")
	}

	client := servicenow.NewClient(cfg.ServiceNow)
	srv := server.New(cfg, verifier, rootCmd.Version)
	tools.RegisterAll(srv, client, cfg.Auth.Scopes)
	logging.Info("Main", "Registered %d tools against %s", len(srv.Registry().Descriptors()), cfg.ServiceNow.BaseURL)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	<-ctx.Done()
	logging.Info("Main", "Shutdown signal received")
	return srv.Stop(context.Background())
}

// applyServeFlags layers explicit command-line flags on top of the
// loaded configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = config.Transport(serveTransport)
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML configuration file")
	serveCmd.Flags().StringVar(&serveTransport, "transport", string(config.TransportStdio), "MCP transport: stdio, sse, or streamable-http")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host for the HTTP transports")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port for the HTTP transports")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}
