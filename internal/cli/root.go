package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Session string
}

func (o *RootOptions) client() *Client {
	return NewClient(o.Server, o.Session)
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chatctl",
		Short: "Talk to the restaurant chat service from a terminal",
		Long: `chatctl sends numeric chat commands to the restaurant chat service and
renders its replies. Reuse --session (or CHATCTL_SESSION) to keep one cart
across invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("CHATCTL_SERVER", "http://localhost:3000"), "chat service base URL")
	cmd.PersistentFlags().StringVar(&opts.Session, "session", os.Getenv("CHATCTL_SESSION"), "session id (a new one is issued when empty)")

	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewPayCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewChatCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// announceSession tells the user which session a fresh invocation landed in.
func announceSession(cmd *cobra.Command, opts *RootOptions, c *Client) {
	if opts.Session == "" && c.Session() != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", c.Session())
	}
}
