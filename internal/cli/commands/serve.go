package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/internal/api"
)

// shutdownTimeout bounds graceful shutdown of the API server.
const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(g *GlobalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve imported logs over HTTP",
		Long: `Run the HTTP API over the database.

Endpoints:
  GET  /health
  GET  /logs
  GET  /logs/:ref
  GET  /logs/:ref/events?offset=&limit=&filter=
  POST /logs?source=name   (body is raw combat log text)

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := g.loadConfig(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			st, err := g.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := api.NewServer(st, cfg.Server.Addr,
				api.WithLogger(g.Logger()),
				api.WithMaxLineSize(cfg.Import.MaxLineSize))

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.Database, cfg.Server.Addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serving: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			g.Logger().Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")

	return cmd
}
