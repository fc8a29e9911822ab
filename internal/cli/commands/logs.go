package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogsCommand creates the logs command and its subcommands.
func NewLogsCommand(g *GlobalOptions) *cobra.Command {
	opts := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List imported logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			cfg, err := g.loadConfig(ctx)
			if err != nil {
				return err
			}
			formatter, err := opts.formatter()
			if err != nil {
				return err
			}

			st, err := g.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			logs, err := st.ListLogs(ctx)
			if err != nil {
				return err
			}
			return formatter.FormatLogs(ctx, logs, cmd.OutOrStdout())
		},
	}

	opts.addFlags(cmd)
	cmd.AddCommand(newLogsDeleteCommand(g))

	return cmd
}

func newLogsDeleteCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <log-ref>",
		Short: "Delete a log and its events",
		Long:  "Delete a log, referenced by numeric id or UUID, together with all of its events.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			cfg, err := g.loadConfig(ctx)
			if err != nil {
				return err
			}

			st, err := g.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			l, err := st.GetLog(ctx, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteLog(ctx, l.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted log %d (%s, %d events)\n", l.ID, l.UUID, l.EventCount)
			return nil
		},
	}
}
