package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Config   config.Config `json:"config"`
	Warnings []string      `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration exactly as serve would (defaults, --config file,
.env, environment) and check it without connecting anywhere.

The effective configuration is printed with the bot token redacted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)
	formatter.VerboseLog("loading config %q", opts.Config)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "config is invalid", err)
	}

	result := ValidationResult{
		Valid:    true,
		Config:   cfg.Redacted(),
		Warnings: warnings(cfg),
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	out, err := yaml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	var b strings.Builder
	b.WriteString("✓ Config valid\n\n")
	b.Write(out)
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s", w)
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}

// warnings reports settings that are valid but will stop serve or surprise
// an operator.
func warnings(cfg *config.Config) []string {
	var out []string
	if err := cfg.RequireToken(); errors.Is(err, config.ErrMissingToken) {
		out = append(out, err.Error()+"; serve will refuse to start")
	}
	if cfg.Session.TTL == 0 {
		out = append(out, "session.ttl is 0; abandoned flows are never evicted")
	}
	if cfg.Database.Path == ":memory:" {
		out = append(out, "database.path is :memory:; cards are lost on exit")
	}
	return out
}
