package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/solatis/ntfyrelay/internal/core/config"
	"github.com/solatis/ntfyrelay/internal/core/db"
	"github.com/solatis/ntfyrelay/internal/core/delivery"
	"github.com/solatis/ntfyrelay/internal/core/metrics"
	"github.com/solatis/ntfyrelay/internal/core/server"
	"github.com/solatis/ntfyrelay/internal/relay"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook relay",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "webhook server host")
	serveCmd.Flags().Int("port", 5000, "webhook server port")
	serveCmd.Flags().Int("health-port", 0, "gRPC health server port (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("health-port") {
		cfg.HealthPort, _ = cmd.Flags().GetInt("health-port")
	}

	registry, err := loadRegistry(logger)
	if err != nil {
		return err
	}

	apiKey := config.APIKey()
	if apiKey == "" {
		logger.Warn("no API key set, notifications are sent unauthenticated", "env", config.APIKeyEnv)
	}
	client, err := delivery.NewClient(cfg, apiKey, nil)
	if err != nil {
		return fmt.Errorf("failed to create delivery client: %w", err)
	}

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{
		server.WithMetrics(m),
		server.WithLogger(logger),
		server.WithMaxBody(cfg.MaxBodyBytes),
	}
	if dbURL != "" {
		history, closeDB, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		opts = append(opts, server.WithHistory(history))
	}

	handler, err := server.NewWebhookHandler(registry, client, opts...)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}
	httpServer, err := server.NewHTTPServer(cfg, server.NewRouter(handler, m), logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 2)
	var healthServer *server.HealthServer
	if cfg.HealthPort != 0 {
		healthServer, err = server.NewHealthServer(cfg)
		if err != nil {
			return fmt.Errorf("failed to create health server: %w", err)
		}
		go func() { errChan <- healthServer.Start(ctx) }()
	}

	logger.Info("starting ntfyrelay",
		"version", Version,
		"host", cfg.Host,
		"port", cfg.Port,
		"url_base", cfg.URLBase,
		"topics", registry.Names(),
	)
	go func() { errChan <- httpServer.Start(ctx) }()

	select {
	case err := <-errChan:
		stop()
		shutdown(logger, httpServer, healthServer)
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		return shutdown(logger, httpServer, healthServer)
	}
}

// loadRegistry compiles the topics section of the config file. Malformed
// rules are logged and left in place as never-matching.
func loadRegistry(logger *slog.Logger) (*relay.Registry, error) {
	topics, err := config.LoadTopics(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	registry, problems := relay.NewRegistry(topics)
	for _, p := range problems {
		logger.Warn("invalid filter ignored", "error", p)
	}
	return registry, nil
}

func openHistory(ctx context.Context) (*db.HistoryStore, func(), error) {
	database, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.MigrateUp(database); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	history, err := db.NewHistoryStore(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return history, func() { database.Close() }, nil
}

func shutdown(logger *slog.Logger, httpServer *server.HTTPServer, healthServer *server.HealthServer) error {
	ctx := context.Background()
	if healthServer != nil {
		if err := healthServer.Shutdown(ctx); err != nil {
			logger.Warn("health server shutdown", "error", err)
		}
	}
	return httpServer.Shutdown(ctx)
}
