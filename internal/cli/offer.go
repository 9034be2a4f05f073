package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/service"
	"github.com/spf13/cobra"
)

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Place, cancel and follow DEX offers",
}

var offerFlags struct {
	account    string
	expiration time.Duration
	replace    uint32
	passive    bool
	ioc        bool
	fok        bool
	sell       bool
	limit      int
}

var offerCreateCmd = &cobra.Command{
	Use:   "create <taker-gets> <taker-pays>",
	Short: "Place an offer",
	Long: `Place an offer. Amounts are VALUE for XRP or VALUE/CURRENCY/ISSUER for
issued tokens, e.g. "offer create 25 10/USD/rIssuer".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(offerFlags.account)
		if err != nil {
			return err
		}
		gets, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		pays, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		offer := &tx.OfferCreate{
			Account:              account,
			TakerGets:            gets,
			TakerPays:            pays,
			ReplaceOfferSequence: optionalUint32(cmd.Flags().Changed("replace"), offerFlags.replace),
			Passive:              offerFlags.passive,
			ImmediateOrCancel:    offerFlags.ioc,
			FillOrKill:           offerFlags.fok,
			Sell:                 offerFlags.sell,
		}
		if offerFlags.expiration > 0 {
			exp := time.Now().Add(offerFlags.expiration)
			offer.Expiration = &exp
		}
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.CreateOffer(ctx, auth, offer)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var offerCancelCmd = &cobra.Command{
	Use:   "cancel <offer-sequence>",
	Short: "Cancel an offer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(offerFlags.account)
		if err != nil {
			return err
		}
		seq, err := parseSequence(args[0])
		if err != nil {
			return err
		}
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.CancelOffer(ctx, auth, account, seq)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var offerListCmd = &cobra.Command{
	Use:   "list <address>",
	Short: "List the open offers of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			res, err := a.svc.AccountOffers(ctx, service.OfferFilter{Account: args[0], Limit: offerFlags.limit})
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var offerStatusCmd = &cobra.Command{
	Use:   "status <address> <offer-sequence>",
	Short: "Tell whether an offer is still on the books",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := parseSequence(args[1])
		if err != nil {
			return err
		}
		return run(cmd, func(ctx context.Context, a *app) error {
			st, err := a.svc.OfferStatus(ctx, args[0], seq)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"status": st.Status(), "offer": st.Offer})
		})
	},
}

var offerHistoryCmd = &cobra.Command{
	Use:   "history <address> <offer-sequence>",
	Short: "List the recent transactions that touched an offer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := parseSequence(args[1])
		if err != nil {
			return err
		}
		return run(cmd, func(ctx context.Context, a *app) error {
			entries, err := a.svc.OfferHistory(ctx, args[0], seq)
			if err != nil {
				return err
			}
			return printJSON(entries)
		})
	},
}

var orderbookFlags struct {
	taker string
	limit int
}

var orderbookCmd = &cobra.Command{
	Use:   "orderbook <taker-gets> <taker-pays>",
	Short: "Show the offers exchanging one asset for another",
	Long: `Show an order book. Assets are XRP or CURRENCY/ISSUER, e.g.
"orderbook XRP USD/rIssuer".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := service.BookQuery{
			TakerGets: parseIssue(args[0]),
			TakerPays: parseIssue(args[1]),
			Taker:     orderbookFlags.taker,
			Limit:     orderbookFlags.limit,
		}
		return run(cmd, func(ctx context.Context, a *app) error {
			res, err := a.svc.OrderBook(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

func parseSequence(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, xrplerr.Input("offerSequence", "%q is not a sequence number", s)
	}
	return uint32(n), nil
}

// parseIssue reads CURRENCY or CURRENCY/ISSUER.
func parseIssue(s string) rpc.Issue {
	code, issuer, _ := strings.Cut(s, "/")
	return rpc.Issue{Currency: code, Issuer: issuer}
}

func init() {
	pf := offerCmd.PersistentFlags()
	pf.StringVar(&offerFlags.account, "account", "", "offer owner (default: the seed's account)")

	f := offerCreateCmd.Flags()
	f.DurationVar(&offerFlags.expiration, "expires-in", 0, "expire the offer after this long")
	f.Uint32Var(&offerFlags.replace, "replace", 0, "cancel this offer sequence in the same transaction")
	f.BoolVar(&offerFlags.passive, "passive", false, "do not consume offers that exactly match")
	f.BoolVar(&offerFlags.ioc, "immediate-or-cancel", false, "never place the offer on the books")
	f.BoolVar(&offerFlags.fok, "fill-or-kill", false, "fill the whole offer or nothing")
	f.BoolVar(&offerFlags.sell, "sell", false, "exchange the whole taker-gets amount")
	offerListCmd.Flags().IntVar(&offerFlags.limit, "limit", 0, "maximum number of offers")

	orderbookCmd.Flags().StringVar(&orderbookFlags.taker, "taker", "", "view the book as this account")
	orderbookCmd.Flags().IntVar(&orderbookFlags.limit, "limit", 0, "maximum number of offers")

	offerCmd.AddCommand(offerCreateCmd, offerCancelCmd, offerListCmd, offerStatusCmd, offerHistoryCmd)
	rootCmd.AddCommand(offerCmd, orderbookCmd)
}
