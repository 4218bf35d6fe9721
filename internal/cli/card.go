package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/console"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/present"
)

// CardOptions holds flags for the card subcommands.
type CardOptions struct {
	*RootOptions
	Database string
	User     int64
}

// CardView is the JSON payload of card show and card share.
type CardView struct {
	card.Record
	Text string `json:"text"`
}

// NewCardCommand creates the card command with its show and share subcommands.
func NewCardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "card",
		Short: "Inspect stored cards",
		Long: `Read the latest card of a user straight from the database.

Exit codes:
  0 - Card found
  1 - The user has no card
  2 - Command error (bad config, database not readable)`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().Int64Var(&opts.User, "user", 0, "owner user id (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Print the card as the bot shows it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCard(opts, cmd, func(c card.Card) string {
				return console.PlainText(present.FormatCard(c))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "share",
		Short:         "Print the plain-text share block",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCard(opts, cmd, present.ShareText)
		},
	})

	return cmd
}

func runCard(opts *CardOptions, cmd *cobra.Command, render func(card.Card) string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	rt, err := openRuntime(cmd, opts.RootOptions, dbOverride(opts.Database))
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer rt.Close()

	uid := card.UserID(opts.User)
	formatter.VerboseLog("reading latest card of user %s from %s", uid, rt.cfg.Database.Path)

	rec, found, err := rt.store.GetLatest(cmd.Context(), uid)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read card", err)
	}
	if !found {
		msg := fmt.Sprintf("user %s has no card", uid)
		_ = formatter.Error(ErrCodeNoCard, msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	text := render(rec.Card)
	if opts.Format == "json" {
		return formatter.Success(CardView{Record: rec, Text: text})
	}
	return formatter.Success(text)
}
