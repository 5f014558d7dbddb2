package notification

import "time"

type Kind string

const (
	KindPrizeWon            Kind = "prize_won"
	KindSettlementCompleted Kind = "settlement_completed"
)

type Event struct {
	ID        string
	UserID    string
	Kind      Kind
	Payload   map[string]any
	CreatedAt time.Time
}
