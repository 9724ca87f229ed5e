// internal/payment/store.go
package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists gateway payments.
type Store interface {
	// UpsertSucceeded records a successful charge, replacing any earlier
	// attempt for the same booking.
	UpsertSucceeded(ctx context.Context, p Payment) (*Payment, error)
	FindSucceeded(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	List(ctx context.Context, status string, page, limit int) ([]Payment, int, error)
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// EnsureSchema creates the payments table.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			booking_id UUID NOT NULL UNIQUE,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL DEFAULT 'vnd',
			status TEXT NOT NULL,
			gateway TEXT NOT NULL,
			gateway_transaction_id TEXT NOT NULL DEFAULT '',
			amount_refunded NUMERIC NOT NULL DEFAULT 0,
			transaction_date TIMESTAMPTZ NOT NULL,
			refunded_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

const paymentColumns = `id, booking_id, amount, currency, status, gateway,
	gateway_transaction_id, amount_refunded, transaction_date, refunded_at, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Currency, &p.Status, &p.Gateway,
		&p.GatewayTransactionID, &p.AmountRefunded, &p.TransactionDate, &p.RefundedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *postgresStore) UpsertSucceeded(ctx context.Context, p Payment) (*Payment, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Currency == "" {
		p.Currency = "vnd"
	}
	p.Status = StatusSucceeded
	p.TransactionDate = time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO payments (id, booking_id, amount, currency, status, gateway, gateway_transaction_id, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    status = EXCLUDED.status,
		    gateway = EXCLUDED.gateway,
		    gateway_transaction_id = EXCLUDED.gateway_transaction_id,
		    transaction_date = EXCLUDED.transaction_date
		RETURNING `+paymentColumns,
		p.ID, p.BookingID, p.Amount, p.Currency, p.Status, p.Gateway, p.GatewayTransactionID, p.TransactionDate)

	saved, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("upsert payment: %w", err)
	}
	return saved, nil
}

func (s *postgresStore) FindSucceeded(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE booking_id = $1 AND status = $2
	`, bookingID, StatusSucceeded)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoRefundablePayment
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

func (s *postgresStore) MarkRefunded(ctx context.Context, id uuid.UUID) (*Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE payments
		SET status = $2, amount_refunded = amount, refunded_at = NOW()
		WHERE id = $1
		RETURNING `+paymentColumns, id, StatusRefunded)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoRefundablePayment
	}
	if err != nil {
		return nil, fmt.Errorf("mark payment refunded: %w", err)
	}
	return p, nil
}

func (s *postgresStore) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list payments for booking: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (s *postgresStore) List(ctx context.Context, status string, page, limit int) ([]Payment, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	where := ""
	args := []interface{}{}
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM payments
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, paymentColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func collectPayments(rows *sql.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
