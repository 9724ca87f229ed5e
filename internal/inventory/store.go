// internal/inventory/store.go
package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store is the persistence boundary of the availability ledger.
type Store interface {
	Insert(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Item, error)
	ListActive(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, item *Item) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	// ReserveOne applies the increment and the capacity check in a single
	// conditional update. It returns ErrItemNotFound or an
	// *InsufficientStockError when no row qualifies.
	ReserveOne(ctx context.Context, id uuid.UUID, qty int) error
	// ReleaseOne decrements the booked counter, clamped at zero.
	ReleaseOne(ctx context.Context, id uuid.UUID, qty int) error

	ApplyEventPrice(ctx context.Context, id uuid.UUID, price float64, event AppliedEvent) error
	RevertEventPrice(ctx context.Context, id uuid.UUID) error

	InsertEvent(ctx context.Context, event *PricingEvent) error
	GetEvent(ctx context.Context, id uuid.UUID) (*PricingEvent, error)
	SetEventActive(ctx context.Context, id uuid.UUID, active bool) error
	ListEvents(ctx context.Context, activeOnly bool) ([]PricingEvent, error)
}

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a Store backed by postgres.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// EnsureSchema creates the availability ledger tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS inventory_items (
			id UUID PRIMARY KEY,
			product_id UUID NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			total_slots INT NOT NULL,
			booked_slots INT NOT NULL DEFAULT 0,
			price NUMERIC NOT NULL,
			original_price NUMERIC,
			applied_event JSONB,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT booked_within_total CHECK (booked_slots >= 0 AND booked_slots <= total_slots)
		);
		CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory_items (product_id, date);

		CREATE TABLE IF NOT EXISTS pricing_events (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			discount_type TEXT NOT NULL,
			discount_value NUMERIC NOT NULL,
			priority INT NOT NULL DEFAULT 0,
			apply_to_all BOOLEAN NOT NULL DEFAULT FALSE,
			product_ids UUID[] NOT NULL DEFAULT '{}',
			start_month INT NOT NULL,
			start_day INT NOT NULL,
			end_month INT NOT NULL,
			end_day INT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

const itemColumns = `id, product_id, date, total_slots, booked_slots, price, original_price, applied_event, is_active, created_at, updated_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*Item, error) {
	item := &Item{}
	var originalPrice sql.NullFloat64
	var appliedEvent []byte

	err := row.Scan(
		&item.ID,
		&item.ProductID,
		&item.Date,
		&item.TotalSlots,
		&item.BookedSlots,
		&item.Price,
		&originalPrice,
		&appliedEvent,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if originalPrice.Valid {
		item.OriginalPrice = &originalPrice.Float64
	}
	if len(appliedEvent) > 0 {
		item.AppliedEvent = &AppliedEvent{}
		if err := json.Unmarshal(appliedEvent, item.AppliedEvent); err != nil {
			return nil, fmt.Errorf("decode applied event: %w", err)
		}
	}
	return item, nil
}

func (s *postgresStore) Insert(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO inventory_items (id, product_id, date, total_slots, booked_slots, price, is_active)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, item.ID, item.ProductID, item.Date, item.TotalSlots, item.Price, item.IsActive)
	return err
}

func (s *postgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return item, nil
}

func (s *postgresStore) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE product_id = $1 AND is_active ORDER BY date ASC`
	return s.queryItems(ctx, query, productID)
}

func (s *postgresStore) ListActive(ctx context.Context) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE is_active ORDER BY date ASC`
	return s.queryItems(ctx, query)
}

func (s *postgresStore) queryItems(ctx context.Context, query string, args ...interface{}) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *postgresStore) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE inventory_items
		SET date = $1, total_slots = $2, price = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
	`
	res, err := s.db.ExecContext(ctx, query, item.Date, item.TotalSlots, item.Price, item.IsActive, item.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *postgresStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ReserveOne is the compare-and-swap at the heart of the ledger: the
// capacity check and the increment happen in one statement, so concurrent
// callers cannot both take the last slot. Zero rows affected is the
// failure signal.
func (s *postgresStore) ReserveOne(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE inventory_items
		SET booked_slots = booked_slots + $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND booked_slots + $2 <= total_slots
	`
	res, err := s.db.ExecContext(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a missing item from an exhausted one for the caller.
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !item.IsActive {
		return ErrItemInactive
	}
	return &InsufficientStockError{InventoryID: id, Available: item.Available(), Requested: qty}
}

func (s *postgresStore) ReleaseOne(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE inventory_items
		SET booked_slots = GREATEST(booked_slots - $2, 0), updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ApplyEventPrice overwrites the sale price and snapshots the base price
// exactly once, so repeated syncs never compound discounts.
func (s *postgresStore) ApplyEventPrice(ctx context.Context, id uuid.UUID, price float64, event AppliedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode applied event: %w", err)
	}

	query := `
		UPDATE inventory_items
		SET original_price = COALESCE(original_price, price),
		    price = $2,
		    applied_event = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, price, payload)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *postgresStore) RevertEventPrice(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE inventory_items
		SET price = COALESCE(original_price, price),
		    original_price = NULL,
		    applied_event = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *postgresStore) InsertEvent(ctx context.Context, event *PricingEvent) error {
	ids := make([]string, 0, len(event.ProductIDs))
	for _, id := range event.ProductIDs {
		ids = append(ids, id.String())
	}

	query := `
		INSERT INTO pricing_events
			(id, name, discount_type, discount_value, priority, apply_to_all, product_ids,
			 start_month, start_day, end_month, end_day, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Name, event.Type, event.Value, event.Priority,
		event.ApplyToAll, pq.Array(ids),
		event.StartMonth, event.StartDay, event.EndMonth, event.EndDay, event.IsActive)
	return err
}

func (s *postgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*PricingEvent, error) {
	query := `
		SELECT id, name, discount_type, discount_value, priority, apply_to_all, product_ids,
		       start_month, start_day, end_month, end_day, is_active, created_at
		FROM pricing_events
		WHERE id = $1
	`
	event, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	return event, err
}

func (s *postgresStore) SetEventActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pricing_events SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *postgresStore) ListEvents(ctx context.Context, activeOnly bool) ([]PricingEvent, error) {
	query := `
		SELECT id, name, discount_type, discount_value, priority, apply_to_all, product_ids,
		       start_month, start_day, end_month, end_day, is_active, created_at
		FROM pricing_events
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pricing events: %w", err)
	}
	defer rows.Close()

	var events []PricingEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanEvent(row interface{ Scan(...interface{}) error }) (*PricingEvent, error) {
	event := &PricingEvent{}
	var ids pq.StringArray

	err := row.Scan(
		&event.ID, &event.Name, &event.Type, &event.Value, &event.Priority,
		&event.ApplyToAll, &ids,
		&event.StartMonth, &event.StartDay, &event.EndMonth, &event.EndDay,
		&event.IsActive, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse event product id: %w", err)
		}
		event.ProductIDs = append(event.ProductIDs, id)
	}
	return event, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}
