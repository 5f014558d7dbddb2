package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
)

// SettlementLocker is a process-local lease table.
type SettlementLocker struct {
	mu     sync.Mutex
	leases map[string]settlement.Lease
	now    func() time.Time
}

func NewSettlementLocker() *SettlementLocker {
	return &SettlementLocker{
		leases: make(map[string]settlement.Lease),
		now:    time.Now,
	}
}

func (l *SettlementLocker) TryAcquire(_ context.Context, competitionID, owner string, ttl time.Duration) (settlement.Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, held := l.leases[competitionID]; held && current.ExpiresAt.After(now) {
		return current, false, nil
	}

	lease := settlement.Lease{
		CompetitionID: competitionID,
		Owner:         owner,
		AcquiredAt:    now,
		ExpiresAt:     now.Add(ttl),
	}
	l.leases[competitionID] = lease
	return lease, true, nil
}

// Release drops the lease only if it is still owned by lease.Owner.
func (l *SettlementLocker) Release(_ context.Context, lease settlement.Lease) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current, held := l.leases[lease.CompetitionID]; held && current.Owner == lease.Owner {
		delete(l.leases, lease.CompetitionID)
	}
	return nil
}
