package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/internal/watcher"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/importer"
	"github.com/ccollicutt/combatlog/pkg/output"
	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/store"
)

// WatchOptions holds command-line options for the watch command.
type WatchOptions struct {
	OutputOptions
	WebhookOptions
	Pattern   string
	Settle    time.Duration
	StateFile string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(g *GlobalOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Import combat logs as the game finishes writing them",
		Long: `Watch a directory and import each combat log once it has settled.

A file is settled when it has not been written to for the settle period.
Files already in the directory are considered too. Imported files are
recorded in a state file so a restarted watch does not import them again.
A relative state file is placed inside the watched directory.

A file that changes size after it was imported, such as a session log that
went quiet for longer than the settle period, is imported again in full and
the new log replaces the earlier one.

A file with a malformed line is reported and skipped; watching continues.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, g, opts)
		},
	}

	opts.OutputOptions.addFlags(cmd)
	opts.WebhookOptions.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "File name pattern (default from config, WoWCombatLog*.txt)")
	cmd.Flags().DurationVar(&opts.Settle, "settle", 0, "Quiet period before a file is imported (default from config, 30s)")
	cmd.Flags().StringVar(&opts.StateFile, "state", "", "State file (default from config, .combatlog-state.json)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, g *GlobalOptions, opts *WatchOptions) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	applyWatchFlags(&cfg.Watch, args, opts)
	if cfg.Watch.Dir == "" {
		return fmt.Errorf("no directory to watch: pass one or set watch.dir or %s", config.EnvWatchDir)
	}

	formatter, err := opts.formatter()
	if err != nil {
		return err
	}
	hooks, err := collectWebhooks(cfg, &opts.WebhookOptions)
	if err != nil {
		return err
	}

	statePath := cfg.Watch.StateFile
	if !filepath.IsAbs(statePath) {
		statePath = filepath.Join(cfg.Watch.Dir, statePath)
	}
	cp, err := watcher.LoadCheckpoint(statePath)
	if err != nil {
		return err
	}

	w, err := watcher.New(cfg.Watch.Dir, cp,
		watcher.WithPattern(cfg.Watch.Pattern),
		watcher.WithSettle(cfg.Watch.Settle),
		watcher.WithLogger(g.Logger()))
	if err != nil {
		return err
	}

	st, err := g.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for %s (settle %s)\n", w.Dir(), cfg.Watch.Pattern, cfg.Watch.Settle)

	im := importer.New(st, importer.WithLogger(g.Logger()))
	for path := range w.Ready() {
		report, err := importSettled(ctx, im, st, cfg, cp, path)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			g.Logger().Error("skipping file", "path", path, "error", err)
			sendWebhooks(ctx, g, hooks, output.NewErrorReport(err, cfg.Database, []string{path}))
			continue
		}

		if err := formatter.FormatReport(ctx, report, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		sendWebhooks(ctx, g, hooks, report)
	}

	return <-errCh
}

func applyWatchFlags(w *config.WatchConfig, args []string, opts *WatchOptions) {
	if len(args) == 1 {
		w.Dir = args[0]
	}
	if opts.Pattern != "" {
		w.Pattern = opts.Pattern
	}
	if opts.Settle > 0 {
		w.Settle = opts.Settle
	}
	if opts.StateFile != "" {
		w.StateFile = opts.StateFile
	}
}

// importSettled imports one file and records it in the checkpoint. A log
// from an earlier import of the same file is deleted once the new one is
// saved.
func importSettled(ctx context.Context, im *importer.Importer, st *store.Store, cfg *config.Config, cp *watcher.Checkpoint, path string) (*output.Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	prev, reimport := cp.Get(path)

	result, err := im.Import(ctx, parser.OpenSource(path, cfg.Import.MaxLineSize))
	if err != nil {
		return nil, err
	}

	cp.Record(path, watcher.Entry{
		Size:       info.Size(),
		LogUUID:    result.Logs[0].UUID,
		ImportedAt: result.FinishedAt.UTC().Truncate(time.Millisecond),
	})
	if err := cp.Save(); err != nil {
		return nil, err
	}

	if reimport {
		if err := replaceLog(ctx, st, prev.LogUUID); err != nil {
			return nil, err
		}
	}

	return output.NewReport(result, cfg.Database), nil
}

// replaceLog deletes the log saved by an earlier import. A log that is
// already gone is not an error.
func replaceLog(ctx context.Context, st *store.Store, uuid string) error {
	l, err := st.GetLog(ctx, uuid)
	if errors.Is(err, store.ErrLogNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("replacing log %s: %w", uuid, err)
	}
	if err := st.DeleteLog(ctx, l.ID); err != nil {
		return fmt.Errorf("replacing log %s: %w", uuid, err)
	}
	return nil
}
