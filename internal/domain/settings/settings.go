// Package settings stores operator-editable key/value settings.
package settings

import "context"

// OpeningBalanceKey holds the ledger's starting balance as a decimal string
const OpeningBalanceKey = "opening_balance"

// Repository reads and writes settings
type Repository interface {
	// Get reports found=false when the key was never set
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
