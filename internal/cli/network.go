package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Show the recommended transaction fee",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			return printJSON(a.fees.Recommend(ctx))
		})
	},
}

var ledgerMargin uint32

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the current ledger and the expiry a transaction would get",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			margin := ledgerMargin
			if margin == 0 {
				margin = a.cfg.Window.Margin
			}
			w, err := a.window.CurrentAndExpiry(ctx, margin)
			if err != nil {
				return err
			}
			validated, err := a.client.ValidatedLedger(ctx)
			if err != nil {
				return err
			}
			return printJSON(map[string]uint32{
				"current":            w.Current,
				"validated":          validated,
				"lastLedgerSequence": w.LastLedgerSequence,
			})
		})
	},
}

func init() {
	ledgerCmd.Flags().Uint32Var(&ledgerMargin, "margin", 0, "ledgers until expiry (default from config)")
	rootCmd.AddCommand(feeCmd, ledgerCmd)
}
