package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

type walletTableModel struct {
	UserID    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type walletTransactionModel struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Amount    decimal.Decimal `db:"amount"`
	Reason    string          `db:"reason"`
	Reference string          `db:"reference"`
	CreatedAt time.Time       `db:"created_at"`
}

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUser(ctx context.Context, userID string) (wallet.Wallet, bool, error) {
	query, args, err := qb.Select("user_id", "balance", "updated_at").From("wallets").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return wallet.Wallet{}, false, fmt.Errorf("build select wallet query: %w", err)
	}

	var row walletTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return wallet.Wallet{}, false, nil
		}
		return wallet.Wallet{}, false, crerr.Wrapf(err, "select wallet user=%s", userID)
	}
	return wallet.Wallet{UserID: row.UserID, Balance: row.Balance, UpdatedAt: row.UpdatedAt}, true, nil
}

func (r *WalletRepository) ListCredits(ctx context.Context, userID string) ([]wallet.Credit, error) {
	query, args, err := qb.Select("id", "user_id", "amount", "reason", "reference", "created_at").
		From("wallet_transactions").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select wallet transactions query: %w", err)
	}

	var rows []walletTransactionModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select wallet transactions user=%s", userID)
	}

	out := make([]wallet.Credit, 0, len(rows))
	for _, row := range rows {
		out = append(out, wallet.Credit{
			ID:        row.ID,
			UserID:    row.UserID,
			Amount:    row.Amount,
			Reason:    row.Reason,
			Reference: row.Reference,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// applyCredits inserts ledger rows and bumps balances inside tx. A reused
// reference fails the whole transaction.
func applyCredits(ctx context.Context, tx *sqlx.Tx, credits []wallet.Credit) error {
	for _, credit := range credits {
		query, args, err := qb.InsertModel("wallet_transactions", walletTransactionModel{
			ID:        credit.ID,
			UserID:    credit.UserID,
			Amount:    credit.Amount,
			Reason:    credit.Reason,
			Reference: credit.Reference,
			CreatedAt: credit.CreatedAt,
		}, "")
		if err != nil {
			return fmt.Errorf("build insert wallet transaction query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return crerr.Wrapf(err, "wallet credit %s already recorded", credit.Reference)
			}
			return crerr.Wrapf(err, "insert wallet transaction %s", credit.Reference)
		}

		query, args, err = qb.InsertModel("wallets", walletTableModel{
			UserID:    credit.UserID,
			Balance:   credit.Amount,
			UpdatedAt: credit.CreatedAt,
		}, `ON CONFLICT (user_id) DO UPDATE SET
    balance = wallets.balance + EXCLUDED.balance,
    updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return fmt.Errorf("build upsert wallet balance query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "credit wallet user=%s", credit.UserID)
		}
	}
	return nil
}
