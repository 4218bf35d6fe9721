package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/config"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/engine"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/flow"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/metrics"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/session"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/telegram"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database    string
	MetricsAddr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Run the bot against the Telegram Bot API using long polling.

The token comes from BOT_TOKEN (or telegram.token in the config file).
Events are handled one at a time per user and in parallel across users.
SIGINT/SIGTERM stop polling and drain the events already received.

Example:
  BOT_TOKEN=123:abc vizitka serve --db ./vizitka.db
  vizitka serve --config ./vizitka.yaml --metrics-addr :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	rt, err := openRuntime(cmd, opts.RootOptions, func(c *config.Config) {
		dbOverride(opts.Database)(c)
		if opts.MetricsAddr != "" {
			c.Metrics.Addr = opts.MetricsAddr
		}
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger
	if err := cfg.RequireToken(); err != nil {
		return WrapExitError(ExitCommandError, "cannot start bot", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.Token, cfg.Telegram.RequestTimeout)
	defer client.Close()

	me, err := client.GetMe(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "telegram authentication failed", err)
	}
	logger.Info("authorized", "bot", me.Username)

	m := metrics.New()
	sessions := session.NewRegistry(session.WithTTL(cfg.Session.TTL))
	handler := flow.New(rt.store, sessions,
		flow.WithObserver(m),
		flow.WithLogger(logger),
	)
	dispatcher := engine.New(handler, telegram.NewSender(client, logger),
		engine.WithObserver(m),
		engine.WithLogger(logger),
	)
	poller := telegram.NewPoller(client, cfg.Telegram.PollTimeout, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return poller.Run(gctx, dispatcher.Enqueue)
	})
	g.Go(func() error {
		return sessions.RunSweeper(gctx, cfg.Session.SweepInterval, m.SessionsSwept)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return m.Serve(gctx, cfg.Metrics.Addr, logger)
		})
	}

	logger.Info("bot started",
		"db", cfg.Database.Path,
		"session_ttl", cfg.Session.TTL,
		"metrics_addr", cfg.Metrics.Addr,
	)

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "bot stopped with error", err)
	}

	logger.Info("bot stopped gracefully", "last_update", poller.Offset())
	return nil
}
