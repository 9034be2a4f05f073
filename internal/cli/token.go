package cli

import (
	"context"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/service"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue, transfer and list issued tokens",
}

var tokenFlags struct {
	account string
	issuer  string
	destTag uint32
	memo    string
}

func tokenPayment(cmd *cobra.Command, account string, args []string) service.TokenPayment {
	return service.TokenPayment{
		Account:        account,
		Destination:    args[0],
		Currency:       args[1],
		Value:          args[2],
		Issuer:         tokenFlags.issuer,
		DestinationTag: optionalUint32(cmd.Flags().Changed("destination-tag"), tokenFlags.destTag),
		Memos:          memos(tokenFlags.memo),
	}
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <destination> <currency> <value>",
	Short: "Issue a token from the signing account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(tokenFlags.account)
		if err != nil {
			return err
		}
		p := tokenPayment(cmd, account, args)
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.IssueToken(ctx, auth, p)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <destination> <currency> <value>",
	Short: "Transfer a token held by the signing account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(tokenFlags.account)
		if err != nil {
			return err
		}
		p := tokenPayment(cmd, account, args)
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.TransferToken(ctx, auth, p)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list <issuer>",
	Short: "List the trust lines holding tokens of an issuer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			lines, err := a.svc.TokensByIssuer(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(lines)
		})
	},
}

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Create, change and list trust lines",
}

var trustFlags struct {
	account  string
	noRipple bool
	freeze   bool
	auth     bool
	peer     string
	currency string
}

// trustSet builds the TrustSet intent from <issuer> <currency> <limit>.
func trustSet(cmd *cobra.Command, account string, args []string) *tx.TrustSet {
	f := cmd.Flags()
	line := &tx.TrustSet{
		Account:   account,
		Issuer:    args[0],
		Currency:  args[1],
		Limit:     args[2],
		Authorize: trustFlags.auth,
	}
	if f.Changed("no-ripple") {
		line.NoRipple = &trustFlags.noRipple
	}
	if f.Changed("freeze") {
		line.Freeze = &trustFlags.freeze
	}
	return line
}

var trustSetCmd = &cobra.Command{
	Use:   "set <issuer> <currency> <limit>",
	Short: "Create or change a trust line",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(trustFlags.account)
		if err != nil {
			return err
		}
		line := trustSet(cmd, account, args)
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.SetTrustLine(ctx, auth, line)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var trustNoRippleCmd = &cobra.Command{
	Use:   "no-ripple <issuer> <currency> <limit>",
	Short: "Create or change a trust line with rippling disabled",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(trustFlags.account)
		if err != nil {
			return err
		}
		line := trustSet(cmd, account, args)
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.SetTrustLineNoRipple(ctx, auth, line)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var trustListCmd = &cobra.Command{
	Use:   "list <address>",
	Short: "List the trust lines of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			lines, err := a.svc.TrustLines(ctx, args[0], trustFlags.currency, trustFlags.peer)
			if err != nil {
				return err
			}
			return printJSON(lines)
		})
	},
}

func init() {
	tf := tokenCmd.PersistentFlags()
	tf.StringVar(&tokenFlags.account, "account", "", "sending account (default: the seed's account)")
	tf.StringVar(&tokenFlags.issuer, "issuer", "", "token issuer (issue defaults to the sending account)")
	tf.Uint32Var(&tokenFlags.destTag, "destination-tag", 0, "destination tag")
	tf.StringVar(&tokenFlags.memo, "memo", "", "memo text")
	tokenCmd.AddCommand(tokenIssueCmd, tokenTransferCmd, tokenListCmd)

	sf := trustCmd.PersistentFlags()
	sf.StringVar(&trustFlags.account, "account", "", "account holding the line (default: the seed's account)")
	sf.BoolVar(&trustFlags.noRipple, "no-ripple", false, "set or clear the no-ripple flag")
	sf.BoolVar(&trustFlags.freeze, "freeze", false, "set or clear the freeze flag")
	sf.BoolVar(&trustFlags.auth, "authorize", false, "authorize the line")
	trustListCmd.Flags().StringVar(&trustFlags.peer, "peer", "", "only lines with this counterparty")
	trustListCmd.Flags().StringVar(&trustFlags.currency, "currency", "", "only lines in this currency")
	trustCmd.AddCommand(trustSetCmd, trustNoRippleCmd, trustListCmd)

	rootCmd.AddCommand(tokenCmd, trustCmd)
}
