package settlement

import (
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeFinished Outcome = "finished"
	OutcomeSkipped  Outcome = "skipped"
	OutcomePartial  Outcome = "partial"
)

const (
	ReasonLockHeld        = "lock_held"
	ReasonAlreadySettled  = "already_settled"
	ReasonMatchWindowOpen = "match_window_open"
	ReasonStatusChanged   = "status_changed"
)

// Result reports what a settlement trigger did.
type Result struct {
	CompetitionID     string
	RunID             string
	Outcome           Outcome
	Reason            string
	Participants      int
	Winners           int
	IncompleteEntries []string
	Distributed       decimal.Decimal
	SettledAt         *time.Time
}

// Lease is an exclusive, time-bounded claim on settling one competition.
type Lease struct {
	CompetitionID string
	Owner         string
	AcquiredAt    time.Time
	ExpiresAt     time.Time
}

type Payout struct {
	EntryID string
	UserID  string
	Rank    int
	Amount  decimal.Decimal
}

// Finalization is everything persisted atomically when a competition moves
// from scoring to finished. Events go to the notification outbox in the same
// unit, so a crash after commit loses none of them.
type Finalization struct {
	CompetitionID string
	RunID         string
	Entries       []competition.Entry
	Payouts       []Payout
	Events        []notification.Event
	SettledAt     time.Time
}

func (f Finalization) Total() decimal.Decimal {
	total := decimal.Zero
	for _, payout := range f.Payouts {
		total = total.Add(payout.Amount)
	}
	return total
}

// Credits returns the prize ledger rows of the finalization.
func (f Finalization) Credits() []wallet.Credit {
	out := make([]wallet.Credit, 0, len(f.Payouts))
	for _, payout := range f.Payouts {
		out = append(out, wallet.Credit{
			ID:        f.RunID + ":" + payout.EntryID,
			UserID:    payout.UserID,
			Amount:    payout.Amount,
			Reason:    wallet.ReasonCompetitionPrize,
			Reference: wallet.PrizeReference(f.CompetitionID, payout.EntryID),
			CreatedAt: f.SettledAt,
		})
	}
	return out
}
