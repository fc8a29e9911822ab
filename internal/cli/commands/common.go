package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/output"
	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/store"
	"github.com/ccollicutt/combatlog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// DefaultLogLevel is used when --log-level is not given.
const DefaultLogLevel = "warn"

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	Database   string
	LogLevel   string

	logger *slog.Logger
}

// SetupLogging installs a text slog handler on w at the configured level.
func (g *GlobalOptions) SetupLogging(w io.Writer) error {
	level := g.LogLevel
	if level == "" {
		level = DefaultLogLevel
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q (use debug, info, warn or error)", level)
	}

	g.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(g.logger)
	return nil
}

// Logger returns the configured logger, or slog.Default before setup.
func (g *GlobalOptions) Logger() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}

// loadConfig loads the config file, if any, and applies flag overrides.
func (g *GlobalOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, g.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.Database != "" {
		cfg.Database = g.Database
	}
	return cfg, nil
}

func (g *GlobalOptions) openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	g.Logger().Debug("opening database", "path", cfg.Database)
	return store.Open(ctx, cfg.Database)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openSources returns one source per file. "-" reads the command's stdin.
func openSources(cmd *cobra.Command, files []string, maxLineSize int) []parser.LineSource {
	sources := make([]parser.LineSource, len(files))
	for i, f := range files {
		if f == parser.StdinName {
			sources[i] = parser.NewReaderSource(parser.StdinName, io.NopCloser(cmd.InOrStdin()), maxLineSize)
			continue
		}
		sources[i] = parser.NewFileSource(f, maxLineSize)
	}
	return sources
}

// expandArgs expands file arguments, defaulting to stdin.
func expandArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{parser.StdinName}
	}
	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return nil, fmt.Errorf("expanding log sources: %w", err)
	}
	return files, nil
}

// OutputOptions are the formatting flags shared by commands that print results.
type OutputOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
}

func (o *OutputOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", false, "Show extra detail")
	cmd.Flags().BoolVarP(&o.Quiet, "quiet", "q", false, "Summary only, no details")
}

func (o *OutputOptions) formatter() (output.Formatter, error) {
	return output.New(o.Output, output.FormatOptions{
		Verbose: o.Verbose,
		Quiet:   o.Quiet,
	})
}

// WebhookOptions holds the one-off webhook flags.
type WebhookOptions struct {
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

func (o *WebhookOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&o.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&o.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnImport),
		"When to fire webhook (on_import|always|never)")
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *WebhookOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(strings.ToLower(opts.WebhookTrigger)),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, fmt.Errorf("--webhook-url: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}

// sendWebhooks notifies every configured webhook. Failures are logged but
// never fail the command.
func sendWebhooks(ctx context.Context, g *GlobalOptions, hooks []config.WebhookConfig, report *output.Report) {
	if len(hooks) == 0 {
		return
	}
	client := webhook.NewClient(webhook.WithLogger(g.Logger()))
	client.Notify(ctx, hooks, report)
}
