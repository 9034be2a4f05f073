package cli

import (
	"context"

	"github.com/LeJamon/xrplgate/internal/service"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect, create and configure accounts",
}

var accountInfoCmd = &cobra.Command{
	Use:   "info <address>",
	Short: "Show an account as of the latest validated ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			root, err := a.svc.AccountInfo(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(root)
		})
	},
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new account and fund it from the faucet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			acct, err := a.svc.CreateAccount(ctx)
			if err != nil {
				return err
			}
			return printJSON(acct)
		})
	},
}

var accountSetFlags struct {
	account      string
	domain       string
	transferRate string
	emailHash    string
	messageKey   string
	tickSize     uint8
}

var accountSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change account settings with an AccountSet transaction",
	Long: `Change account settings. Flags such as --default-ripple take true or
false to set or clear the account flag; at most one flag may be set and one
cleared per transaction.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, account, err := authFor(accountSetFlags.account)
		if err != nil {
			return err
		}
		opts := accountOptions(cmd, account)
		return run(cmd, func(ctx context.Context, a *app) error {
			out, err := a.svc.SetAccountOptions(ctx, auth, opts)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

// accountOptions collects the flags that were actually given.
func accountOptions(cmd *cobra.Command, account string) service.AccountOptions {
	f := cmd.Flags()
	opts := service.AccountOptions{Account: account}
	toggle := func(name string) *bool {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetBool(name)
		return &v
	}
	opts.DefaultRipple = toggle("default-ripple")
	opts.RequireDest = toggle("require-dest")
	opts.RequireAuth = toggle("require-auth")
	opts.DisallowXRP = toggle("disallow-xrp")
	opts.DisableMasterKey = toggle("disable-master")
	if f.Changed("domain") {
		opts.Domain = &accountSetFlags.domain
	}
	if f.Changed("transfer-rate") {
		opts.TransferRate = &accountSetFlags.transferRate
	}
	if f.Changed("email-hash") {
		opts.EmailHash = &accountSetFlags.emailHash
	}
	if f.Changed("message-key") {
		opts.MessageKey = &accountSetFlags.messageKey
	}
	if f.Changed("tick-size") {
		opts.TickSize = &accountSetFlags.tickSize
	}
	return opts
}

func init() {
	f := accountSetCmd.Flags()
	f.StringVar(&accountSetFlags.account, "account", "", "account to change (default: the seed's account)")
	f.StringVar(&accountSetFlags.domain, "domain", "", "domain, empty to clear")
	f.StringVar(&accountSetFlags.transferRate, "transfer-rate", "", "transfer fee percentage, 0 to 100")
	f.StringVar(&accountSetFlags.emailHash, "email-hash", "", "MD5 hash of an email address as hex")
	f.StringVar(&accountSetFlags.messageKey, "message-key", "", "public key for encrypted messages as hex")
	f.Uint8Var(&accountSetFlags.tickSize, "tick-size", 0, "offer tick size, 3 to 15, 0 to clear")
	f.Bool("default-ripple", false, "set or clear DefaultRipple")
	f.Bool("require-dest", false, "set or clear RequireDest")
	f.Bool("require-auth", false, "set or clear RequireAuth")
	f.Bool("disallow-xrp", false, "set or clear DisallowXRP")
	f.Bool("disable-master", false, "set or clear DisableMaster")

	accountCmd.AddCommand(accountInfoCmd, accountCreateCmd, accountSetCmd)
	rootCmd.AddCommand(accountCmd)
}
