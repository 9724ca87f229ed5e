// internal/booking/store.go
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store persists bookings and their attached records.
type Store interface {
	Insert(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// UpdateStatus moves a booking from one status to another and
	// reports whether the row actually changed. A false return means
	// the booking was no longer in the source status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, paymentStatus *string) (bool, error)
	AppendPayment(ctx context.Context, bookingID uuid.UUID, rec PaymentRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	List(ctx context.Context, f ListFilter) ([]Booking, int, error)
	ListByProductIDs(ctx context.Context, productIDs []uuid.UUID, f ListFilter) ([]Booking, int, error)
	ListExpiredConfirmed(ctx context.Context, now time.Time) ([]Booking, error)
	InsertReconciliation(ctx context.Context, rec ReconciliationRecord) error
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// EnsureSchema creates the booking tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL DEFAULT 'unpaid',
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			total_before_discount NUMERIC NOT NULL,
			discount_amount NUMERIC NOT NULL DEFAULT 0,
			final_price NUMERIC NOT NULL,
			promotion_id UUID,
			passengers JSONB NOT NULL DEFAULT '[]',
			contact JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS bookings_user ON bookings (user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS bookings_expiry ON bookings (status, end_date);

		CREATE TABLE IF NOT EXISTS booking_items (
			booking_id UUID NOT NULL REFERENCES bookings (id),
			product_id UUID NOT NULL,
			inventory_id UUID NOT NULL,
			product_type TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			unit_price NUMERIC NOT NULL,
			snapshot JSONB NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS booking_items_booking ON booking_items (booking_id);
		CREATE INDEX IF NOT EXISTS booking_items_product ON booking_items (product_id);

		CREATE TABLE IF NOT EXISTS booking_payments (
			id UUID PRIMARY KEY,
			booking_id UUID NOT NULL REFERENCES bookings (id),
			gateway TEXT NOT NULL,
			gateway_transaction_id TEXT NOT NULL DEFAULT '',
			amount NUMERIC NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS reconciliation_records (
			id UUID PRIMARY KEY,
			booking_id UUID NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (s *postgresStore) Insert(ctx context.Context, b *Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return fmt.Errorf("marshal passengers: %w", err)
	}
	var contact []byte
	if b.Contact != nil {
		if contact, err = json.Marshal(b.Contact); err != nil {
			return fmt.Errorf("marshal contact: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, status, payment_status, start_date, end_date,
			total_before_discount, discount_amount, final_price, promotion_id, passengers, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, b.ID, b.UserID, b.Status, b.PaymentStatus, b.StartDate, b.EndDate,
		b.Pricing.TotalBeforeDiscount, b.Pricing.DiscountAmount, b.Pricing.FinalPrice,
		b.PromotionID, passengers, contact)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	for _, item := range b.Items {
		snapshot, err := json.Marshal(item.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO booking_items (booking_id, product_id, inventory_id, product_type, quantity, unit_price, snapshot)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, b.ID, item.ProductID, item.InventoryID, item.ProductType, item.Quantity, item.UnitPrice, snapshot)
		if err != nil {
			return fmt.Errorf("insert booking item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const bookingColumns = `id, user_id, status, payment_status, start_date, end_date,
	total_before_discount, discount_amount, final_price, promotion_id, passengers, contact,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*Booking, error) {
	var b Booking
	var passengers, contact []byte
	err := row.Scan(&b.ID, &b.UserID, &b.Status, &b.PaymentStatus, &b.StartDate, &b.EndDate,
		&b.Pricing.TotalBeforeDiscount, &b.Pricing.DiscountAmount, &b.Pricing.FinalPrice,
		&b.PromotionID, &passengers, &contact, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(passengers) > 0 {
		if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
			return nil, fmt.Errorf("unmarshal passengers: %w", err)
		}
	}
	if len(contact) > 0 {
		b.Contact = &ContactInfo{}
		if err := json.Unmarshal(contact, b.Contact); err != nil {
			return nil, fmt.Errorf("unmarshal contact: %w", err)
		}
	}
	return &b, nil
}

func (s *postgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if err := s.attachItems(ctx, []*Booking{b}); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gateway, gateway_transaction_id, amount, status, created_at
		FROM booking_payments
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list booking payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PaymentRecord
		if err := rows.Scan(&p.ID, &p.Gateway, &p.GatewayTransactionID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking payment: %w", err)
		}
		b.Payments = append(b.Payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking payments: %w", err)
	}

	return b, nil
}

func (s *postgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, paymentStatus *string) (bool, error) {
	var res sql.Result
	var err error
	if paymentStatus != nil {
		res, err = s.db.ExecContext(ctx, `
			UPDATE bookings SET status = $3, payment_status = $4, updated_at = NOW()
			WHERE id = $1 AND status = $2
		`, id, from, to, *paymentStatus)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE bookings SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
		`, id, from, to)
	}
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *postgresStore) AppendPayment(ctx context.Context, bookingID uuid.UUID, rec PaymentRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO booking_payments (id, booking_id, gateway, gateway_transaction_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, bookingID, rec.Gateway, rec.GatewayTransactionID, rec.Amount, rec.Status)
	if err != nil {
		return fmt.Errorf("append booking payment: %w", err)
	}
	return nil
}

func (s *postgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings by user: %w", err)
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

func (s *postgresStore) List(ctx context.Context, f ListFilter) ([]Booking, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	return s.listPaged(ctx, where, args, f)
}

func (s *postgresStore) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID, f ListFilter) ([]Booking, int, error) {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	args := []interface{}{pq.Array(ids)}
	where := `WHERE id IN (SELECT booking_id FROM booking_items WHERE product_id = ANY($1::uuid[]))`
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	return s.listPaged(ctx, where, args, f)
}

func (s *postgresStore) listPaged(ctx context.Context, where string, args []interface{}, f ListFilter) ([]Booking, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM bookings %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, bookingColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := s.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *postgresStore) ListExpiredConfirmed(ctx context.Context, now time.Time) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = $1 AND end_date < $2
		ORDER BY end_date ASC
	`, StatusConfirmed, now)
	if err != nil {
		return nil, fmt.Errorf("list expired bookings: %w", err)
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

func (s *postgresStore) InsertReconciliation(ctx context.Context, rec ReconciliationRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_records (id, booking_id, kind, detail)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.BookingID, rec.Kind, rec.Detail)
	if err != nil {
		return fmt.Errorf("insert reconciliation record: %w", err)
	}
	return nil
}

func (s *postgresStore) collect(ctx context.Context, rows *sql.Rows) ([]Booking, error) {
	var ptrs []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		ptrs = append(ptrs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	if err := s.attachItems(ctx, ptrs); err != nil {
		return nil, err
	}

	bookings := make([]Booking, len(ptrs))
	for i, b := range ptrs {
		bookings[i] = *b
	}
	return bookings, nil
}

func (s *postgresStore) attachItems(ctx context.Context, bookings []*Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*Booking, len(bookings))
	ids := make([]string, len(bookings))
	for i, b := range bookings {
		byID[b.ID] = b
		ids[i] = b.ID.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT booking_id, product_id, inventory_id, product_type, quantity, unit_price, snapshot
		FROM booking_items
		WHERE booking_id = ANY($1::uuid[])
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID uuid.UUID
		var item Item
		var snapshot []byte
		if err := rows.Scan(&bookingID, &item.ProductID, &item.InventoryID, &item.ProductType,
			&item.Quantity, &item.UnitPrice, &snapshot); err != nil {
			return fmt.Errorf("scan booking item: %w", err)
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &item.Snapshot); err != nil {
				return fmt.Errorf("unmarshal snapshot: %w", err)
			}
		}
		if b, ok := byID[bookingID]; ok {
			b.Items = append(b.Items, item)
		}
	}
	return rows.Err()
}
