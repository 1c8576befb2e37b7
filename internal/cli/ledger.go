package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/kvdph/internal/container"
)

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Manage the bundled ledger tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import a company, partners and documents from a YAML fixture",
		Example: `  kvdph ledger import march.yaml
  kvdph --config configs/config.yaml ledger import march.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				summary, err := c.LedgerImporter().ImportReader(ctx, f)
				if err != nil {
					return err
				}
				p := opts.printer(cmd)
				if p.json {
					return p.printJSON(summary)
				}
				return p.printf("imported company %s: %d partners, %d documents\n",
					summary.CompanyID, summary.Partners, summary.Documents)
			})
		},
	})
	return cmd
}
