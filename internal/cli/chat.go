package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/console"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/engine"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/flow"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/session"
)

// ChatOptions holds flags for the chat command.
type ChatOptions struct {
	*RootOptions
	Database string
	User     int64
}

// DefaultConsoleUser is the user id of a local chat session.
const DefaultConsoleUser = 1

// NewChatCommand creates the chat command.
func NewChatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot in the terminal",
		Long: `Run the conversation locally against the configured database.

Type text to send a message. Press a button with !<number> (as listed
under the last screen) or !<action>. Type /quit or send EOF to leave.

Example:
  vizitka chat --db ./dev.db
  vizitka chat --user 42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().Int64Var(&opts.User, "user", DefaultConsoleUser, "user id to chat as")

	return cmd
}

func runChat(opts *ChatOptions, cmd *cobra.Command) error {
	if opts.User == 0 {
		return NewExitError(ExitCommandError, "--user must be non-zero")
	}

	rt, err := openRuntime(cmd, opts.RootOptions, dbOverride(opts.Database))
	if err != nil {
		return err
	}
	defer rt.Close()

	sessions := session.NewRegistry(session.WithTTL(rt.cfg.Session.TTL))
	con := console.New(cmd.InOrStdin(), cmd.OutOrStdout(), card.UserID(opts.User))
	dispatcher := engine.New(
		flow.New(rt.store, sessions, flow.WithLogger(rt.logger)),
		con,
		engine.WithLogger(rt.logger),
	)
	defer dispatcher.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Chatting as user %d. Send /start to begin, %s to leave.\n", opts.User, console.QuitCommand)
	if err := con.Run(cmd.Context(), dispatcher); err != nil {
		return WrapExitError(ExitFailure, "console error", err)
	}
	return nil
}
