package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/config"
	"github.com/garyjia/kvdph/internal/container"
	httpapi "github.com/garyjia/kvdph/internal/interfaces/http"
	"github.com/garyjia/kvdph/pkg/utils"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Logger.Level = "debug"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return RunServer(ctx, cfg, Version)
		},
	}
}

var _ httpapi.Logger = (*utils.KeyValueLogger)(nil)

// RunServer starts the container and serves the HTTP API until ctx is done.
func RunServer(ctx context.Context, cfg *config.Config, version string) error {
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting VAT control statement service",
		zap.String("version", version),
		zap.String("driver", cfg.Database.Driver),
		zap.Int("port", cfg.Server.Port))

	containerCfg := cfg.ToContainerConfig()
	containerCfg.Version = version

	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	server := httpapi.NewServer(
		httpapi.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		c.Statements(),
		c.Metrics().Handler(),
		version,
		utils.NewKeyValueLogger(logger),
	)

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("Server exited")
	return nil
}
