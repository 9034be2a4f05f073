package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the submission journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list <address>",
	Short: "List recorded submissions of an account, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, a *app) error {
			if a.journal == nil {
				return errors.New("journal is not configured, set journal.driver and journal.dsn")
			}
			entries, err := a.journal.List(ctx, args[0], journalLimit)
			if err != nil {
				return err
			}
			return printJSON(entries)
		})
	},
}

func init() {
	journalListCmd.Flags().IntVar(&journalLimit, "limit", 50, "maximum number of entries")
	journalCmd.AddCommand(journalListCmd)
	rootCmd.AddCommand(journalCmd)
}
