package cli

import (
	"context"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/service"
	"github.com/spf13/cobra"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Send XRP and list payments",
}

var paymentFlags struct {
	account string
	destTag uint32
	memo    string
}

var paymentSendCmd = &cobra.Command{
	Use:   "send <destination> <xrp>",
	Short: "Send XRP to a destination",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(paymentFlags.account)
		if err != nil {
			return err
		}
		p := service.XRPPayment{
			Account:        account,
			Destination:    args[0],
			XRP:            args[1],
			DestinationTag: optionalUint32(cmd.Flags().Changed("destination-tag"), paymentFlags.destTag),
			Memos:          memos(paymentFlags.memo),
		}
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.SendXRP(ctx, auth, p)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var paymentHistoryCmd = &cobra.Command{
	Use:   "history <address>",
	Short: "List the most recent payments of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			txs, err := a.svc.PaymentHistory(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(txs)
		})
	},
}

var txCmd = &cobra.Command{
	Use:   "tx <hash>",
	Short: "Show a transaction by hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			t, err := a.svc.TransactionDetails(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

func memos(text string) []tx.Memo {
	if text == "" {
		return nil
	}
	return []tx.Memo{{Data: text}}
}

func init() {
	f := paymentSendCmd.Flags()
	f.StringVar(&paymentFlags.account, "account", "", "sending account (default: the seed's account)")
	f.Uint32Var(&paymentFlags.destTag, "destination-tag", 0, "destination tag")
	f.StringVar(&paymentFlags.memo, "memo", "", "memo text")

	paymentCmd.AddCommand(paymentSendCmd, paymentHistoryCmd)
	rootCmd.AddCommand(paymentCmd, txCmd)
}
