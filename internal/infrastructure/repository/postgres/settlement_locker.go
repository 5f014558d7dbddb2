package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
)

type settlementLockModel struct {
	CompetitionID string    `db:"competition_public_id"`
	Owner         string    `db:"owner"`
	AcquiredAt    time.Time `db:"acquired_at"`
	ExpiresAt     time.Time `db:"expires_at"`
}

// SettlementLocker keeps leases in settlement_locks. An expired lease is
// taken over by the next acquirer.
type SettlementLocker struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSettlementLocker(db *sqlx.DB) *SettlementLocker {
	return &SettlementLocker{db: db, now: time.Now}
}

func (l *SettlementLocker) TryAcquire(ctx context.Context, competitionID, owner string, ttl time.Duration) (settlement.Lease, bool, error) {
	now := l.now().UTC()
	model := settlementLockModel{
		CompetitionID: competitionID,
		Owner:         owner,
		AcquiredAt:    now,
		ExpiresAt:     now.Add(ttl),
	}

	query, args, err := qb.InsertModel("settlement_locks", model, `ON CONFLICT (competition_public_id) DO UPDATE SET
    owner = EXCLUDED.owner,
    acquired_at = EXCLUDED.acquired_at,
    expires_at = EXCLUDED.expires_at
WHERE settlement_locks.expires_at <= ?
RETURNING competition_public_id, owner, acquired_at, expires_at`, now)
	if err != nil {
		return settlement.Lease{}, false, fmt.Errorf("build acquire settlement lock query: %w", err)
	}

	var row settlementLockModel
	if err := l.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return settlement.Lease{CompetitionID: competitionID}, false, nil
		}
		return settlement.Lease{}, false, crerr.Wrapf(err, "acquire settlement lock competition=%s", competitionID)
	}

	return settlement.Lease{
		CompetitionID: row.CompetitionID,
		Owner:         row.Owner,
		AcquiredAt:    row.AcquiredAt,
		ExpiresAt:     row.ExpiresAt,
	}, row.Owner == owner, nil
}

func (l *SettlementLocker) Release(ctx context.Context, lease settlement.Lease) error {
	const releaseQuery = `DELETE FROM settlement_locks WHERE competition_public_id = $1 AND owner = $2`
	if _, err := l.db.ExecContext(ctx, releaseQuery, lease.CompetitionID, lease.Owner); err != nil {
		return crerr.Wrapf(err, "release settlement lock competition=%s", lease.CompetitionID)
	}
	return nil
}
