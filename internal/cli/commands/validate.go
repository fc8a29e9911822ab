package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/importer"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// ValidateOptions holds command-line options for the validate command.
type ValidateOptions struct {
	All bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(g *GlobalOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [file|-|glob ...]",
		Short: "Check that combat logs parse without importing them",
		Long: `Validate combat log files without touching the database.

By default validation stops at the first malformed line, exactly where an
import would. With --all every malformed line in every source is listed.

Exit codes:
  0 - Every line parsed
  1 - At least one line is malformed
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, g, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Keep going and report every malformed line")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ValidateOptions) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	// Load configuration
	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}

	// Expand log sources
	files, err := expandArgs(args)
	if err != nil {
		return err
	}

	sources := openSources(cmd, files, cfg.Import.MaxLineSize)
	defer func() {
		for _, src := range sources {
			_ = src.Close()
		}
	}()

	// Stop at the first bad line, like import
	if !opts.All {
		for _, src := range sources {
			batch, err := importer.Collect(ctx, src)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(out, "%s: %d record(s) OK\n", batch.Source, len(batch.Records))
		}
		return nil
	}

	invalid := 0
	for _, src := range sources {
		lineErrs, records, err := validateAll(ctx, src)
		if err != nil {
			return err
		}
		for _, le := range lineErrs {
			fmt.Fprintln(out, le.Error())
		}
		if len(lineErrs) == 0 {
			fmt.Fprintf(out, "%s: %d record(s) OK\n", src.Name(), records)
		}
		invalid += len(lineErrs)
	}

	if invalid > 0 {
		fmt.Fprintf(out, "\n%d malformed line(s)\n", invalid)
		ExitCode = 1
	}
	return nil
}

// validateAll parses every line of src and collects each failure.
func validateAll(ctx context.Context, src parser.LineSource) ([]*importer.LineError, int, error) {
	var (
		lineErrs []*importer.LineError
		records  int
	)
	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return lineErrs, records, nil
		}
		if err != nil {
			return nil, 0, err
		}

		if _, err := parser.ParseRecord(line.Content); err != nil {
			var perr *parser.ParseError
			if !errors.As(err, &perr) {
				return nil, 0, err
			}
			lineErrs = append(lineErrs, &importer.LineError{Source: line.Source, LineNum: line.LineNum, Err: perr})
			continue
		}
		records++
	}
}
