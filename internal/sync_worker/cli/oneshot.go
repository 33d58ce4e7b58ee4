package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewOnceCommand runs one incremental sync.
func NewOnceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run one incremental voucher sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOneShot(cmd.Context(), rootOpts, cmd.OutOrStdout(), func(ctx context.Context, a *app) (any, error) {
				return a.engine.Sync(ctx)
			})
		},
	}
}

// BackfillOptions holds flags for the backfill command.
type BackfillOptions struct {
	*RootOptions
	From string
	To   string
}

// NewBackfillCommand re-reads vouchers dated within a range.
func NewBackfillCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackfillOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-sync vouchers dated within a range",
		Long: `Fetches every voucher dated within [from, to] and applies it like an incremental
batch. Newer counters are versioned, known ones are skipped, and the watermark only
moves forward.

Example:
  sync_worker backfill --from 2024-04-01 --to 2024-04-30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := parseRange(opts.From, opts.To)
			if err != nil {
				return err
			}
			return runOneShot(cmd.Context(), rootOpts, cmd.OutOrStdout(), func(ctx context.Context, a *app) (any, error) {
				return a.engine.SyncRange(ctx, from, to)
			})
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first voucher date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last voucher date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// NewMastersCommand refreshes stock items and parties.
func NewMastersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "masters",
		Short: "Sync stock item and party masters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOneShot(cmd.Context(), rootOpts, cmd.OutOrStdout(), func(ctx context.Context, a *app) (any, error) {
				return a.engine.SyncMasters(ctx)
			})
		},
	}
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", fromRaw)
	}
	to, err := time.Parse(time.DateOnly, toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", toRaw)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from %s is after --to %s", fromRaw, toRaw)
	}
	return from, to, nil
}

func runOneShot(ctx context.Context, opts *RootOptions, out io.Writer, run func(context.Context, *app) (any, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, opts, nil)
	if err != nil {
		return err
	}
	defer a.close()

	result, runErr := run(ctx, a)
	if result != nil {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	}
	return runErr
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
