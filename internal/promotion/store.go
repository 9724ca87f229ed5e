// internal/promotion/store.go
package promotion

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a Store backed by postgres.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// EnsureSchema creates the promotion ledger table.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS promotions (
			id UUID PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			value NUMERIC NOT NULL,
			total_quantity INT NOT NULL,
			used_quantity INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			valid_from TIMESTAMPTZ,
			valid_to TIMESTAMPTZ,
			min_spend NUMERIC NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT used_within_total CHECK (used_quantity >= 0 AND used_quantity <= total_quantity)
		);
	`)
	return err
}

const promoColumns = `id, code, type, value, total_quantity, used_quantity, is_active, valid_from, valid_to, min_spend, created_at`

func scanPromotion(row interface{ Scan(...interface{}) error }) (*Promotion, error) {
	promo := &Promotion{}
	var validFrom, validTo sql.NullTime

	err := row.Scan(
		&promo.ID, &promo.Code, &promo.Type, &promo.Value,
		&promo.TotalQuantity, &promo.UsedQuantity, &promo.IsActive,
		&validFrom, &validTo, &promo.MinSpend, &promo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if validFrom.Valid {
		promo.ValidFrom = &validFrom.Time
	}
	if validTo.Valid {
		promo.ValidTo = &validTo.Time
	}
	return promo, nil
}

func (s *postgresStore) Insert(ctx context.Context, promo *Promotion) error {
	query := `
		INSERT INTO promotions (id, code, type, value, total_quantity, used_quantity, is_active, valid_from, valid_to, min_spend)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		promo.ID, promo.Code, promo.Type, promo.Value, promo.TotalQuantity,
		promo.IsActive, promo.ValidFrom, promo.ValidTo, promo.MinSpend)
	return err
}

func (s *postgresStore) List(ctx context.Context) ([]Promotion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+promoColumns+` FROM promotions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	var promos []Promotion
	for rows.Next() {
		promo, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promos = append(promos, *promo)
	}
	return promos, rows.Err()
}

func (s *postgresStore) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	query := `SELECT ` + promoColumns + ` FROM promotions WHERE code = $1 AND is_active`
	promo, err := scanPromotion(s.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get promotion by code: %w", err)
	}
	return promo, nil
}

func (s *postgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	query := `SELECT ` + promoColumns + ` FROM promotions WHERE id = $1`
	promo, err := scanPromotion(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	return promo, nil
}

func (s *postgresStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE promotions SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeUse keeps the usage bound inside the update predicate so two
// concurrent redemptions cannot push used_quantity past total_quantity.
func (s *postgresStore) ConsumeUse(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE promotions
		SET used_quantity = used_quantity + 1
		WHERE id = $1 AND is_active AND used_quantity < total_quantity
	`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("redeem promotion: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExhausted
	}
	return nil
}
