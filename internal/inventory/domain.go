// internal/inventory/domain.go
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Item is the countable stock for one sellable product on one departure date.
// BookedSlots is only ever mutated through Reserve and Release.
type Item struct {
	ID            uuid.UUID     `json:"id"`
	ProductID     uuid.UUID     `json:"product_id"`
	Date          time.Time     `json:"date"`
	TotalSlots    int           `json:"total_slots"`
	BookedSlots   int           `json:"booked_slots"`
	Price         float64       `json:"price"`
	OriginalPrice *float64      `json:"original_price,omitempty"`
	AppliedEvent  *AppliedEvent `json:"applied_event,omitempty"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Available returns the number of slots still open for sale.
func (i *Item) Available() int {
	return i.TotalSlots - i.BookedSlots
}

// AppliedEvent records which pricing event is currently reflected in an
// item's price, so the sync job can tell overrides from base prices.
type AppliedEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Priority  int       `json:"priority"`
	AppliedAt time.Time `json:"applied_at"`
}

// PricingEvent is a seasonal campaign that temporarily overrides item prices.
// Its window is a yearly month/day range and may wrap around new year.
type PricingEvent struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Value      float64     `json:"value"`
	Priority   int         `json:"priority"`
	ApplyToAll bool        `json:"apply_to_all"`
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`
	StartMonth int         `json:"start_month"`
	StartDay   int         `json:"start_day"`
	EndMonth   int         `json:"end_month"`
	EndDay     int         `json:"end_day"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Discount types shared with the promotion ledger.
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

// Line is one (inventory item, quantity) pair in a check, reserve or
// release request.
type Line struct {
	InventoryID uuid.UUID `json:"inventoryId"`
	Quantity    int       `json:"quantity"`
}

var (
	ErrItemNotFound = errors.New("inventory item not found")
	ErrItemInactive = errors.New("inventory item is not active")
)

// InsufficientStockError names the first item that cannot satisfy the
// requested quantity, including how many slots remain.
type InsufficientStockError struct {
	InventoryID uuid.UUID
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for item %s: available %d, requested %d",
		e.InventoryID, e.Available, e.Requested)
}
