// internal/wallet/implementation.go
package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// service implements the Service interface.
type service struct {
	db *sql.DB
}

// NewService creates a new wallet service.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

// EnsureSchema creates the wallet tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_accounts (
			user_id UUID PRIMARY KEY,
			balance NUMERIC NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS wallet_entries (
			reference TEXT PRIMARY KEY,
			user_id UUID NOT NULL,
			amount NUMERIC NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// Update records the entry and moves the balance in one transaction. The
// insert-or-skip on the entry reference is what makes a retried settlement
// credit land exactly once.
func (s *service) Update(ctx context.Context, userID uuid.UUID, amount float64, reference string) (bool, error) {
	if reference == "" {
		return false, ErrMissingReference
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_entries (reference, user_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (reference) DO NOTHING
	`, reference, userID, amount)
	if err != nil {
		return false, fmt.Errorf("insert wallet entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Already applied by a previous attempt.
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_accounts (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallet_accounts.balance + EXCLUDED.balance,
		    updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return false, fmt.Errorf("update wallet balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Account, error) {
	account := &Account{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, updated_at FROM wallet_accounts WHERE user_id = $1
	`, userID).Scan(&account.Balance, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		// An account with no settlements yet simply has a zero balance.
		return account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet account: %w", err)
	}
	return account, nil
}
