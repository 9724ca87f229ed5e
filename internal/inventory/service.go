// internal/inventory/service.go
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for the availability ledger.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*Item, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*Item, error)
	DeactivateItem(ctx context.Context, id uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)

	Check(ctx context.Context, lines []Line) error
	Reserve(ctx context.Context, lines []Line) error
	Release(ctx context.Context, lines []Line) error

	CreateEvent(ctx context.Context, event PricingEvent) (*PricingEvent, error)
	ToggleEvent(ctx context.Context, id uuid.UUID) (*PricingEvent, error)
	ListEvents(ctx context.Context) ([]PricingEvent, error)
	SyncEventPrices(ctx context.Context) (int, error)
}

// CreateItemInput opens sales for a product on a departure date.
// Booked slots always start at zero.
type CreateItemInput struct {
	ProductID  uuid.UUID `json:"product_id"`
	Date       time.Time `json:"date"`
	TotalSlots int       `json:"total_slots"`
	Price      float64   `json:"price"`
}

// UpdateItemInput carries the admin-editable fields. BookedSlots is
// deliberately absent: it is only written by Reserve and Release.
type UpdateItemInput struct {
	Date       *time.Time `json:"date,omitempty"`
	TotalSlots *int       `json:"total_slots,omitempty"`
	Price      *float64   `json:"price,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}
