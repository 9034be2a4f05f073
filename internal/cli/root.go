package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile     string
	debug          bool
	seed           string
	idempotencyKey string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xrplgate",
	Short: "xrplgate - XRPL transactions from intents",
	Long: `xrplgate builds, signs and submits XRP Ledger transactions through a
rippled node, follows them to validation and reports what they settled.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&seed, "seed", "", "family seed of the signing account (default $XRPLGATE_SEED)")
	rootCmd.PersistentFlags().StringVar(&idempotencyKey, "idempotency-key", "", "submit at most once for this key")
}

// signingSeed returns the seed from --seed or the environment.
func signingSeed() string {
	if seed != "" {
		return seed
	}
	return os.Getenv("XRPLGATE_SEED")
}
