// Package cli provides the command-line interface for combatlog.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/internal/cli/commands"
	"github.com/ccollicutt/combatlog/internal/cli/plugins"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	// Check if the first argument might be a plugin command
	if len(os.Args) > 1 {
		potentialCommand := os.Args[1]
		if isPluginCandidate(rootCmd, potentialCommand) {
			if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
				return plugins.Execute(pluginPath, os.Args[2:])
			}
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if len(os.Args) > 1 && isPluginCandidate(rootCmd, os.Args[1]) {
			_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(os.Args[1]))
			return 2
		}
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return commands.ExitCode
}

// exitCode maps an error to the process exit code: 1 when a log line failed
// to parse, 2 for everything else.
func exitCode(err error) int {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return 1
	}
	return 2
}

// isPluginCandidate reports whether arg names a command that is not built in.
func isPluginCandidate(rootCmd *cobra.Command, arg string) bool {
	if arg == "" || arg[0] == '-' {
		return false
	}
	return !isBuiltinCommand(rootCmd, arg)
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	// Also check for special commands like help and completion
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "combatlog",
		Short: "Import and query game combat logs",
		Long: `combatlog parses combat log files into timestamped records, stores them
in a SQLite database and lets you list, filter and serve them.

Each line of a combat log is a timestamp, two spaces, then comma separated
fields:

  10/2/2024 17:34:00.153-7  COMBAT_LOG_VERSION,21,ADVANCED_LOG_ENABLED,1

Fields are kept exactly as written; nothing is converted to numbers.

CONFIGURATION:
  Settings are read from the file given with --config, then .env, then
  COMBATLOG_DATABASE, COMBATLOG_SERVER_ADDR and COMBATLOG_WATCH_DIR.
  Flags override all of them.

PLUGINS:
  combatlog supports plugins for extended functionality. Plugins are
  standalone binaries named combatlog-<command> that are automatically
  discovered and invoked.

  Plugin locations (searched in order):
    1. Same directory as the combatlog binary
    2. ~/.combatlog/plugins/
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.SetupLogging(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&g.Database, "database", "d", "", "SQLite database path (default combatlog.db)")
	rootCmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", commands.DefaultLogLevel, "Log level (debug|info|warn|error)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewImportCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand(g))
	rootCmd.AddCommand(commands.NewLogsCommand(g))
	rootCmd.AddCommand(commands.NewEventsCommand(g))
	rootCmd.AddCommand(commands.NewServeCommand(g))
	rootCmd.AddCommand(commands.NewWatchCommand(g))
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
