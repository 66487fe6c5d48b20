package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

func NewSendCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <input>",
		Short: "Send one chat command",
		Example: `  chatctl send 1
  chatctl --session $SID send 99`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			reply, err := c.Send(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			announceSession(cmd, opts, c)
			printReply(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func printReply(w io.Writer, r MessageReply) {
	fmt.Fprintln(w, r.Response)
	if r.Options != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, r.Options)
	}
	if hint := paymentHint(r); hint != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, hint)
	}
}

func paymentHint(r MessageReply) string {
	if r.Action != "pay" || r.Payment == nil {
		return ""
	}
	return fmt.Sprintf("To pay order %s run: chatctl pay --order %s --amount %d --email you@example.com",
		r.Payment.OrderID, r.Payment.OrderID, r.Payment.Amount)
}

func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the session's placed orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := opts.client().History(cmd.Context())
			if err != nil {
				return err
			}
			printOrders(cmd.OutOrStdout(), orders)
			return nil
		},
	}
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No order history available.")
		return
	}
	for _, o := range orders {
		fmt.Fprintf(w, "%s  %-9s  %d items  total %d\n", o.ID, o.Status, len(o.Items), o.Total)
	}
}

type payOptions struct {
	OrderID string
	Amount  int64
	Email   string
}

func NewPayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &payOptions{}

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Open a payment for a placed order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			link, err := rootOpts.client().Initialize(cmd.Context(), opts.OrderID, opts.Amount, opts.Email)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Complete payment at: %s\n", link.AuthorizationURL)
			fmt.Fprintf(out, "Reference: %s\n", link.Reference)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OrderID, "order", "", "order id to pay")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "order total in major units")
	cmd.Flags().StringVar(&opts.Email, "email", "", "payer email")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <reference>",
		Short: "Check a payment reference and record a success",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payment %s for order %s (%s)\n", res.Status, res.OrderID, res.Reference)
			return nil
		},
	}
}

func NewScheduleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "schedule <orderId> <time>",
		Short:   "Schedule a placed order for later delivery",
		Example: `  chatctl schedule 0192f7c1-... 2026-11-01T18:30:00+01:00`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return fmt.Errorf("invalid time %q: want RFC3339", args[1])
			}
			res, err := opts.client().Schedule(cmd.Context(), args[0], at)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}
