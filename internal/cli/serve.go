package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/project-relgate/relgate/internal/config"
	"github.com/project-relgate/relgate/internal/server"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the relgate server",
		Long: `Start the relgate HTTP server.

The server will:
  - Accept attribute filtering requests on POST /v1/filter
  - Report liveness on GET /healthz
  - Expose Prometheus metrics on GET /metrics

Configuration precedence (highest to lowest):
  1. Command-line flags
  2. Environment variables (RELGATE_*)
  3. Configuration file (if --config or RELGATE_CONFIG is set)
  4. Built-in defaults

Examples:
  # Start with default settings
  relgate serve

  # Override the HTTP port
  relgate serve --server-http-port 8081

  # Use custom config file
  relgate serve --config /etc/relgate/config.yaml`,
		RunE: runServe,
	}

	// Auto-register all config flags
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Determine config file path
	configPath := configFile
	if configPath == "" {
		// Check environment variable
		configPath = os.Getenv("RELGATE_CONFIG")
	}
	// If still empty, configPath remains empty and we'll use env vars/flags only

	// 2. Load configuration (file + env vars + flags)
	loader, err := config.NewLoaderWithFlags(configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := loader.Get()
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// 3. Create provider to build all components from config
	provider := config.NewProvider(cfg)

	// 4. Create logger and observer — single instance shared across all components
	logger := config.NewLogger(cfg.Observability)

	observer, err := config.NewObserverWithLogger(cfg.Observability, logger, provider.Registry())
	if err != nil {
		return fmt.Errorf("failed to create observer: %w", err)
	}

	// Inject into provider so the engine uses the same observer
	provider.SetObserver(observer)

	// 5. Build components via provider
	engine, err := provider.Engine()
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	store, err := provider.MetadataStore()
	if err != nil {
		return fmt.Errorf("failed to create metadata store: %w", err)
	}

	decoder, err := provider.AssertionDecoder()
	if err != nil {
		return fmt.Errorf("failed to create assertion decoder: %w", err)
	}

	filterServer := server.NewFilterServer(engine, store, decoder, logger)

	serverCfg := provider.ServerConfig()
	serverCfg.FilterServer = filterServer
	serverCfg.Registry = provider.Registry()
	serverCfg.Logger = logger

	srv := server.New(serverCfg)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// 6. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	return srv.Stop(context.Background())
}
