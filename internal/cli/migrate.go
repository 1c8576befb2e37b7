package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/kvdph/internal/container"
	"github.com/garyjia/kvdph/pkg/utils"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := utils.NewCLILogger(opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			dbCfg := cfg.ToContainerConfig().Database
			dbCfg.AutoMigrate = true

			db, err := container.ProvideDatabase(&dbCfg, logger)
			if err != nil {
				return err
			}
			defer db.Conn.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", db.Conn.Driver())
			return err
		},
	}
}
