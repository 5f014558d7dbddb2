package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
)

func TestWalletService_GetStatementAfterSettlement(t *testing.T) {
	t.Parallel()

	h := newSettlementHarness(t)
	h.finishFixtures(t)
	if _, err := h.service.TriggerSettlement(context.Background(), memory.CompetitionIDDemoPeer); err != nil {
		t.Fatalf("settle: %v", err)
	}

	statement, err := NewWalletService(h.wallets).GetStatement(context.Background(), "user-budi")
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if !statement.Wallet.Balance.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("unexpected balance: %s", statement.Wallet.Balance)
	}
	if len(statement.Credits) != 1 {
		t.Fatalf("expected one credit, got %d", len(statement.Credits))
	}
	if want := wallet.PrizeReference(memory.CompetitionIDDemoPeer, memory.CompetitionIDDemoPeer+"-e2"); statement.Credits[0].Reference != want {
		t.Fatalf("unexpected reference: %s want %s", statement.Credits[0].Reference, want)
	}
}

func TestWalletService_UnknownUserHasZeroBalance(t *testing.T) {
	t.Parallel()

	service := NewWalletService(memory.NewWalletRepository())
	statement, err := service.GetStatement(context.Background(), "user-new")
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if !statement.Wallet.Balance.IsZero() || len(statement.Credits) != 0 {
		t.Fatalf("expected empty statement, got %+v", statement)
	}

	if _, err := service.GetStatement(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
