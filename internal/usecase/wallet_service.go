package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type WalletStatement struct {
	Wallet  wallet.Wallet
	Credits []wallet.Credit
}

type WalletService struct {
	walletRepo wallet.Repository
}

func NewWalletService(walletRepo wallet.Repository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// GetStatement returns the balance and prize credits of a user. A user
// without credits has a zero balance.
func (s *WalletService) GetStatement(ctx context.Context, userID string) (WalletStatement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.GetStatement",
		attribute.String("user.id", userID),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return WalletStatement{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	item, exists, err := s.walletRepo.GetByUser(ctx, userID)
	if err != nil {
		return WalletStatement{}, fmt.Errorf("get wallet user=%s: %w", userID, err)
	}
	if !exists {
		item = wallet.Wallet{UserID: userID, Balance: decimal.Zero}
	}

	credits, err := s.walletRepo.ListCredits(ctx, userID)
	if err != nil {
		return WalletStatement{}, fmt.Errorf("list wallet credits user=%s: %w", userID, err)
	}
	return WalletStatement{Wallet: item, Credits: credits}, nil
}
