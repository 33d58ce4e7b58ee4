package engine

import (
	"sync/atomic"

	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// guard allows at most one run per domain. The set of domains is fixed at construction.
type guard struct {
	running map[shared.SyncDomain]*atomic.Bool
}

func newGuard(domains ...shared.SyncDomain) *guard {
	g := &guard{running: make(map[shared.SyncDomain]*atomic.Bool, len(domains))}
	for _, d := range domains {
		g.running[d] = new(atomic.Bool)
	}
	return g
}

func (g *guard) acquire(domain shared.SyncDomain) bool {
	flag, ok := g.running[domain]
	if !ok {
		return false
	}
	return flag.CompareAndSwap(false, true)
}

func (g *guard) release(domain shared.SyncDomain) {
	if flag, ok := g.running[domain]; ok {
		flag.Store(false)
	}
}
