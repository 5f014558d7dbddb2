package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

const ReasonCompetitionPrize = "competition_prize"

type Wallet struct {
	UserID    string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// Credit is one ledger row. Reference is unique, so a credit for the same
// prize can never be recorded twice.
type Credit struct {
	ID        string
	UserID    string
	Amount    decimal.Decimal
	Reason    string
	Reference string
	CreatedAt time.Time
}

// PrizeReference is the ledger reference of an entry's prize.
func PrizeReference(competitionID, entryID string) string {
	return "prize:" + competitionID + ":" + entryID
}
