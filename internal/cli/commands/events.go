package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/query"
	"github.com/ccollicutt/combatlog/pkg/store"
)

// EventsOptions holds command-line options for the events command.
type EventsOptions struct {
	OutputOptions
	Filter string
	Offset int
	Limit  int
}

// NewEventsCommand creates the events command.
func NewEventsCommand(g *GlobalOptions) *cobra.Command {
	opts := &EventsOptions{}

	cmd := &cobra.Command{
		Use:   "events <log-ref>",
		Short: "Print the events of an imported log",
		Long: `Print the events of a log, referenced by numeric id or UUID.

--filter takes a JMESPath expression evaluated against each event as
  {"id": 1, "log_id": 1, "timestamp": "2024-10-02T17:34:00.153", "fields": [...]}
and keeps the events for which it is truthy. --offset and --limit then page
over the matching events.

Examples:
  combatlog events 1 --filter "fields[0] == 'ENCOUNTER_START'"
  combatlog events 1 --filter "contains(fields, 'Thrall')" -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, args, g, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "JMESPath filter expression")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Skip this many events")
	cmd.Flags().IntVar(&opts.Limit, "limit", store.DefaultEventLimit, "Print at most this many events")

	return cmd
}

func runEvents(cmd *cobra.Command, args []string, g *GlobalOptions, opts *EventsOptions) error {
	ctx := commandContext(cmd)

	if opts.Offset < 0 {
		return fmt.Errorf("--offset must not be negative, got %d", opts.Offset)
	}
	if opts.Limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", opts.Limit)
	}

	var filter *query.Filter
	if opts.Filter != "" {
		f, err := query.Compile(opts.Filter)
		if err != nil {
			return err
		}
		filter = f
	}

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

	l, err := st.GetLog(ctx, args[0])
	if err != nil {
		return err
	}

	events, err := query.Select(ctx, st, l.ID, store.EventQuery{Offset: opts.Offset, Limit: opts.Limit}, filter)
	if err != nil {
		return err
	}

	return formatter.FormatEvents(ctx, events, cmd.OutOrStdout())
}
