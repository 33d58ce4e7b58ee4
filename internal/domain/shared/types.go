package shared

// SyncDomain names a mirrored collection that owns its own watermark
type SyncDomain string

const (
	DomainVouchers SyncDomain = "vouchers"
	DomainItems    SyncDomain = "items"
	DomainParties  SyncDomain = "parties"
)

// AllDomains lists the domains in the order they are reported
var AllDomains = []SyncDomain{DomainVouchers, DomainItems, DomainParties}

// Valid reports whether d is one of the known domains
func (d SyncDomain) Valid() bool {
	switch d {
	case DomainVouchers, DomainItems, DomainParties:
		return true
	}
	return false
}

// SyncState is the externally visible state of a domain's sync loop
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStateSyncing SyncState = "syncing"
	SyncStateError   SyncState = "error"
)

// OutboxStatus defines change event publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
