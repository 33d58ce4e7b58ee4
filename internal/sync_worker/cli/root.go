// Package cli wires the sync worker binary: a long running serve mode plus one-shot
// commands for operators.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigName string
}

// NewRootCommand creates the root command for the sync worker.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sync_worker",
		Short: "Mirror vouchers from the remote ledger",
		Long: `Keeps the local voucher mirror in step with the remote ledger.

serve runs the scheduler, the outbox publisher and the sync request consumer.
once, backfill and masters run a single sync and print the result as JSON.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigName, "config", "sync_worker", "config name, read from configs/<name>.env")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewOnceCommand(opts))
	cmd.AddCommand(NewBackfillCommand(opts))
	cmd.AddCommand(NewMastersCommand(opts))

	return cmd
}
