package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/importer"
	"github.com/ccollicutt/combatlog/pkg/output"
)

// ImportOptions holds command-line options for the import command.
type ImportOptions struct {
	OutputOptions
	WebhookOptions
}

// NewImportCommand creates the import command.
func NewImportCommand(g *GlobalOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import [file|-|glob ...]",
		Short: "Import combat logs into the database",
		Long: `Parse combat log files and store every record in the database.

Arguments are files, glob patterns (** is supported) or - for stdin.
With no arguments the log is read from stdin.

Every line of every source is parsed before anything is written. A single
malformed line aborts the import and nothing is stored.

Exit codes:
  0 - All sources imported
  1 - A line failed to parse
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, g, opts)
		},
	}

	opts.OutputOptions.addFlags(cmd)
	opts.WebhookOptions.addFlags(cmd)

	return cmd
}

func runImport(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ImportOptions) error {
	ctx := commandContext(cmd)

	// Load configuration
	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}

	// Create formatter
	formatter, err := opts.formatter()
	if err != nil {
		return err
	}

	// Collect webhooks from config and CLI
	hooks, err := collectWebhooks(cfg, &opts.WebhookOptions)
	if err != nil {
		return err
	}

	// Expand log sources
	files, err := expandArgs(args)
	if err != nil {
		return err
	}

	st, err := g.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Run import
	im := importer.New(st, importer.WithLogger(g.Logger()))
	result, err := im.Import(ctx, openSources(cmd, files, cfg.Import.MaxLineSize)...)
	if err != nil {
		sendWebhooks(ctx, g, hooks, output.NewErrorReport(err, cfg.Database, files))
		return fmt.Errorf("import failed: %w", err)
	}

	// Format output
	report := output.NewReport(result, cfg.Database)
	if err := formatter.FormatReport(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Send webhooks
	sendWebhooks(ctx, g, hooks, report)
	return nil
}
