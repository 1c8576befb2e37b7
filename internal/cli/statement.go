package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/kvdph/internal/application/service"
	"github.com/garyjia/kvdph/internal/container"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/export"
	"github.com/garyjia/kvdph/pkg/utils"
)

func newStatementCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "statement",
		Aliases: []string{"st"},
		Short:   "Create, generate and export control statements",
	}

	cmd.AddCommand(
		newStatementCreateCommand(opts),
		newStatementListCommand(opts),
		newStatementShowCommand(opts),
		newStatementTransitionCommand(opts, "generate", "Compute the report lines of a statement"),
		newStatementTransitionCommand(opts, "confirm", "Confirm a generated statement"),
		newStatementTransitionCommand(opts, "reset", "Reset a statement to draft and drop its lines"),
		newStatementExportCommand(opts),
		newStatementNotesCommand(opts),
	)
	return cmd
}

func newStatementCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		companyID string
		year      int
		month     int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft statement for a company and month",
		Example: `  kvdph statement create --company c1 --year 2024 --month 3
  kvdph statement create --company c1   # previous month`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 || month == 0 {
				prevYear, prevMonth := entity.PreviousPeriod(time.Now())
				if year == 0 {
					year = prevYear
				}
				if month == 0 {
					month = prevMonth
				}
			}
			if err := utils.ValidatePeriod(year, month); err != nil {
				return err
			}

			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				stmt, err := c.Statements().Create(ctx, service.CreateStatementInput{
					CompanyID: companyID,
					Year:      year,
					Month:     month,
				})
				if err != nil {
					return err
				}
				return opts.printer(cmd).statement(stmt)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company ID")
	cmd.Flags().IntVar(&year, "year", 0, "reporting year (default: previous month's year)")
	cmd.Flags().IntVar(&month, "month", 0, "reporting month 1-12 (default: previous month)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newStatementListCommand(opts *rootOptions) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List statements, newest period first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				list, err := c.Statements().List(ctx, companyID)
				if err != nil {
					return err
				}
				return opts.printer(cmd).statements(list)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "only statements of this company")
	return cmd
}

func newStatementShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a statement with its report lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				detail, err := c.Statements().GetWithLines(ctx, args[0])
				if err != nil {
					return err
				}
				return opts.printer(cmd).detail(detail)
			})
		},
	}
}

func newStatementTransitionCommand(opts *rootOptions, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				svc := c.Statements()
				p := opts.printer(cmd)

				switch name {
				case "generate":
					detail, err := svc.Generate(ctx, args[0])
					if err != nil {
						return err
					}
					return p.detail(detail)
				case "confirm":
					stmt, err := svc.Confirm(ctx, args[0])
					if err != nil {
						return err
					}
					return p.statement(stmt)
				case "reset":
					stmt, err := svc.ResetToDraft(ctx, args[0])
					if err != nil {
						return err
					}
					return p.statement(stmt)
				default:
					return fmt.Errorf("unknown transition %q", name)
				}
			})
		},
	}
}

func newStatementExportCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Render the XML submission file or the XLSX spreadsheet",
		Example: `  kvdph statement export 6f1c... --format xml --out ./out
  kvdph statement export 6f1c... --format xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				svc := c.Statements()

				var (
					result *service.ExportResult
					err    error
				)
				switch export.Format(format) {
				case export.FormatXML:
					result, err = svc.ExportXML(ctx, args[0])
				case export.FormatXLSX:
					result, err = svc.ExportXLSX(ctx, args[0])
				default:
					return fmt.Errorf("unsupported format %q: use xml or xlsx", format)
				}
				if err != nil {
					return err
				}

				p := opts.printer(cmd)
				if !result.Exported {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", result.Warning)
					return p.statement(result.Statement)
				}

				path, err := writeArtifact(outDir, result.Artifact)
				if err != nil {
					return err
				}
				if p.json {
					return p.printJSON(map[string]interface{}{
						"statement": result.Statement,
						"file":      path,
					})
				}
				return p.printf("wrote %s (status %s)\n", path, result.Statement.Status)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatXML), "output format: xml or xlsx")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the file is written to")
	return cmd
}

func newStatementNotesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id>",
		Short: "Show the activity notes of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				notes, err := c.Statements().Notes(ctx, args[0])
				if err != nil {
					return err
				}
				return opts.printer(cmd).notes(notes)
			})
		},
	}
}

func writeArtifact(dir string, artifact *export.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, artifact.FileName)
	if err := os.WriteFile(path, artifact.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
