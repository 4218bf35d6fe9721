package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/config"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/logging"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/store"
)

// runtime is the configuration, logger and store shared by the commands
// that talk to the database.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	logCloser io.Closer
}

// loadConfig loads --config and applies command-line overrides.
// Overrides win over the file and the environment.
func loadConfig(opts *RootOptions, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid flags", err)
		}
	}
	return cfg, nil
}

// openRuntime loads the config, configures logging to the command's stderr
// and opens the store. The caller must Close the runtime.
func openRuntime(cmd *cobra.Command, opts *RootOptions, override func(*config.Config)) (*runtime, error) {
	cfg, err := loadConfig(opts, override)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}

	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		closer.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &runtime{cfg: cfg, logger: logger, store: st, logCloser: closer}, nil
}

// Close closes the store and flushes the log file.
func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Error("error closing database", "error", err)
	}
	r.logCloser.Close()
}

// dbOverride returns an override that replaces the database path when set.
func dbOverride(path string) func(*config.Config) {
	return func(c *config.Config) {
		if path != "" {
			c.Database.Path = path
		}
	}
}
