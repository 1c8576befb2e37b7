// Package cli implements the kvdph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/config"
	"github.com/garyjia/kvdph/internal/container"
	"github.com/garyjia/kvdph/pkg/utils"
)

// Version is set at build time using ldflags
var Version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
	jsonOutput bool
}

// NewRootCommand builds the kvdph command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kvdph",
		Short: "Slovak VAT control statement (Kontrolny vykaz DPH) tool",
		Long: `kvdph builds monthly VAT control statements from posted customer
invoices and credit notes, and renders the XML submission file and the
auxiliary spreadsheet.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = gotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newLedgerCommand(opts),
		newStatementCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// withContainer starts the container for one command and closes it afterwards.
func (o *rootOptions) withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *container.Container) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	logger, err := utils.NewCLILogger(o.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	containerCfg := cfg.ToContainerConfig()
	containerCfg.Version = Version

	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close container", zap.Error(err))
		}
	}()

	return fn(ctx, c)
}

func (o *rootOptions) printer(cmd *cobra.Command) *printer {
	return &printer{out: cmd.OutOrStdout(), json: o.jsonOutput}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = io.WriteString(cmd.OutOrStdout(), "kvdph "+Version+"\n")
		},
	}
}
