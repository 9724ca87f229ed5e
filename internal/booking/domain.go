// internal/booking/domain.go
package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Booking statuses. Transitions are monotonic: pending → confirmed →
// completed, pending|confirmed → cancelled, pending → failed. Every
// transition is a conditional update on the source status.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Booking is one traveller order. Items carry price and title
// snapshots so later catalog edits never change what was sold.
type Booking struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Items         []Item          `json:"items"`
	Pricing       Pricing         `json:"pricing"`
	PromotionID   *uuid.UUID      `json:"promotion_id,omitempty"`
	Passengers    []Passenger     `json:"passengers,omitempty"`
	Contact       *ContactInfo    `json:"customer_details,omitempty"`
	Payments      []PaymentRecord `json:"payments,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Item is one booked product line with its snapshot.
type Item struct {
	ProductID   uuid.UUID `json:"product_id"`
	InventoryID uuid.UUID `json:"inventory_id"`
	ProductType string    `json:"product_type"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Snapshot    Snapshot  `json:"snapshot"`
}

// Snapshot freezes the sellable's presentation at booking time.
type Snapshot struct {
	Title        string `json:"title"`
	DetailsText  string `json:"details_text,omitempty"`
	Image        string `json:"image,omitempty"`
	DurationDays int    `json:"duration_days"`
}

// Pricing is the money summary. FinalPrice is always
// TotalBeforeDiscount minus DiscountAmount, with
// 0 ≤ DiscountAmount ≤ TotalBeforeDiscount.
type Pricing struct {
	TotalBeforeDiscount float64 `json:"total_price_before_discount"`
	DiscountAmount      float64 `json:"discount_amount"`
	FinalPrice          float64 `json:"final_price"`
}

// PaymentRecord is one gateway charge appended on confirmation.
type PaymentRecord struct {
	ID                   uuid.UUID `json:"id"`
	Gateway              string    `json:"gateway"`
	GatewayTransactionID string    `json:"gateway_transaction_id"`
	Amount               float64   `json:"amount"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

// Passenger is one traveller on the booking.
type Passenger struct {
	FullName    string `json:"fullName"`
	Type        string `json:"type,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// ContactInfo is who to reach about the trip.
type ContactInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Reconciliation kinds. A record is written whenever a best-effort
// compensation fails so operators can finish the job by hand.
const (
	ReconcileStockRelease    = "stock_release"
	ReconcileRefund          = "refund"
	ReconcilePromotionRedeem = "promotion_redeem"
)

// ReconciliationRecord is a persisted failed compensation.
type ReconciliationRecord struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound         = errors.New("booking not found")
	ErrForbidden        = errors.New("you do not own this booking")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrNoItems          = errors.New("booking requires at least one item")
	ErrInvalidQuantity  = errors.New("item quantity must be positive")
	ErrRateLimited      = errors.New("too many booking requests")
)

// StateError reports a transition attempted from the wrong status.
type StateError struct {
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("booking is already %s", e.Status)
}
