package wallet

import "context"

// Repository is read-only; balances change only through settlement
// finalization.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (Wallet, bool, error)
	ListCredits(ctx context.Context, userID string) ([]Credit, error)
}
