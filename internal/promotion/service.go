// internal/promotion/service.go
package promotion

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the promotion ledger.
type Service interface {
	Create(ctx context.Context, promo Promotion) (*Promotion, error)
	List(ctx context.Context) ([]Promotion, error)
	GetByCode(ctx context.Context, code string) (*Promotion, error)
	Toggle(ctx context.Context, id uuid.UUID) (*Promotion, error)

	// Quote validates a code against a subtotal and computes the capped
	// discount. It has no side effects.
	Quote(ctx context.Context, code string, subtotal float64) (*Quote, error)
	// Redeem consumes one use. It is the only writer of used_quantity.
	Redeem(ctx context.Context, id uuid.UUID) error
}

// Store is the persistence boundary of the promotion ledger.
type Store interface {
	Insert(ctx context.Context, promo *Promotion) error
	List(ctx context.Context) ([]Promotion, error)
	GetByCode(ctx context.Context, code string) (*Promotion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Promotion, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ConsumeUse increments used_quantity with the quantity bound in the
	// update predicate; ErrExhausted when no row qualifies.
	ConsumeUse(ctx context.Context, id uuid.UUID) error
}
