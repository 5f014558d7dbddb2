package settlement

import (
	"context"
	"time"
)

// Locker grants per-competition leases. A lease expires after its TTL so a
// crashed worker cannot block settlement forever.
type Locker interface {
	TryAcquire(ctx context.Context, competitionID, owner string, ttl time.Duration) (Lease, bool, error)
	Release(ctx context.Context, lease Lease) error
}

// Finalizer commits a settlement in one transaction: the scoring -> finished
// status swap, entry results and wallet credits. It returns
// competition.ErrStatusConflict, without writing anything, when the
// competition is no longer in scoring.
type Finalizer interface {
	Finalize(ctx context.Context, f Finalization) error
}
