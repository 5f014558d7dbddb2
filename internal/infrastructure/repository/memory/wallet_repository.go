package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

type WalletRepository struct {
	mu         sync.RWMutex
	wallets    map[string]wallet.Wallet
	credits    map[string][]wallet.Credit
	references map[string]struct{}
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		wallets:    make(map[string]wallet.Wallet),
		credits:    make(map[string][]wallet.Credit),
		references: make(map[string]struct{}),
	}
}

func (r *WalletRepository) GetByUser(_ context.Context, userID string) (wallet.Wallet, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.wallets[userID]
	return item, ok, nil
}

func (r *WalletRepository) ListCredits(_ context.Context, userID string) ([]wallet.Credit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.credits[userID]), nil
}

// apply records all credits or none of them.
func (r *WalletRepository) apply(credits []wallet.Credit, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(credits))
	for _, credit := range credits {
		if _, dup := r.references[credit.Reference]; dup {
			return fmt.Errorf("wallet credit %s already recorded", credit.Reference)
		}
		if _, dup := seen[credit.Reference]; dup {
			return fmt.Errorf("wallet credit %s repeated in batch", credit.Reference)
		}
		seen[credit.Reference] = struct{}{}
	}

	for _, credit := range credits {
		current, ok := r.wallets[credit.UserID]
		if !ok {
			current = wallet.Wallet{UserID: credit.UserID, Balance: decimal.Zero}
		}
		current.Balance = current.Balance.Add(credit.Amount)
		current.UpdatedAt = at
		r.wallets[credit.UserID] = current
		r.credits[credit.UserID] = append(r.credits[credit.UserID], credit)
		r.references[credit.Reference] = struct{}{}
	}
	return nil
}
