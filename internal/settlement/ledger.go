// internal/settlement/ledger.go
package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LedgerStore persists settlement transactions.
type LedgerStore interface {
	Append(ctx context.Context, tx Transaction) (*Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, limit int) ([]Transaction, error)
}

type postgresLedger struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresLedger(db *sql.DB) LedgerStore {
	return &postgresLedger{
		db:     db,
		tracer: otel.Tracer("gotripviet/settlement"),
	}
}

// EnsureSchema creates the ledger table. The partial unique index is
// the idempotency guard: one booking gets at most one row per type.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_transactions (
			id UUID PRIMARY KEY,
			booking_id UUID,
			partner_id UUID,
			type TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'COMPLETED',
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS ledger_booking_type
			ON ledger_transactions (booking_id, type)
			WHERE booking_id IS NOT NULL;

		CREATE INDEX IF NOT EXISTS ledger_partner
			ON ledger_transactions (partner_id, created_at DESC)
			WHERE partner_id IS NOT NULL;
	`)
	return err
}

func (l *postgresLedger) Append(ctx context.Context, tx Transaction) (*Transaction, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.append",
		trace.WithAttributes(
			attribute.String("transaction.type", tx.Type),
			attribute.Float64("transaction.amount", tx.Amount),
		),
	)
	defer span.End()

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Status == "" {
		tx.Status = StatusCompleted
	}
	tx.CreatedAt = time.Now().UTC()

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ledger_transactions (id, booking_id, partner_id, type, amount, status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tx.ID, tx.BookingID, tx.PartnerID, tx.Type, tx.Amount, tx.Status, tx.Note, tx.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			span.SetAttributes(attribute.Bool("duplicate.detected", true))
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("append ledger transaction: %w", err)
	}

	return &tx, nil
}

func (l *postgresLedger) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := l.tracer.Start(ctx, "ledger.delete",
		trace.WithAttributes(attribute.String("transaction.id", id.String())),
	)
	defer span.End()

	res, err := l.db.ExecContext(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ledger transaction: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (l *postgresLedger) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var tx Transaction
	err := l.db.QueryRowContext(ctx, `
		SELECT id, booking_id, partner_id, type, amount, status, note, created_at
		FROM ledger_transactions
		WHERE id = $1
	`, id).Scan(&tx.ID, &tx.BookingID, &tx.PartnerID, &tx.Type, &tx.Amount, &tx.Status, &tx.Note, &tx.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger transaction: %w", err)
	}
	return &tx, nil
}

func (l *postgresLedger) ListByPartner(ctx context.Context, partnerID uuid.UUID, limit int) ([]Transaction, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.list_by_partner",
		trace.WithAttributes(attribute.String("partner.id", partnerID.String())),
	)
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, booking_id, partner_id, type, amount, status, note, created_at
		FROM ledger_transactions
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, partnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.BookingID, &tx.PartnerID, &tx.Type, &tx.Amount, &tx.Status, &tx.Note, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger transactions: %w", err)
	}

	span.SetAttributes(attribute.Int("transactions.listed", len(txs)))
	return txs, nil
}
