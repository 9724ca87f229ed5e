// internal/booking/service.go
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateInput is a traveller's booking request. Prices are never taken
// from the client; each line is re-priced from the availability ledger.
type CreateInput struct {
	Items         []CreateItem `json:"items"`
	PromotionCode string       `json:"promotionCode,omitempty"`
	Passengers    []Passenger  `json:"passengers,omitempty"`
	Contact       *ContactInfo `json:"contactInfo,omitempty"`
}

type CreateItem struct {
	ProductID   uuid.UUID `json:"productId"`
	InventoryID uuid.UUID `json:"inventoryId"`
	ProductType string    `json:"productType,omitempty"`
	Quantity    int       `json:"quantity"`
}

// CreateResult is what the traveller needs to continue to payment.
type CreateResult struct {
	BookingID  uuid.UUID `json:"bookingId"`
	Status     string    `json:"status"`
	FinalPrice float64   `json:"finalPrice"`
	PaymentURL string    `json:"paymentUrl"`
}

// PaymentInfo is the verified charge forwarded by the payment adapter.
type PaymentInfo struct {
	Gateway              string  `json:"gateway"`
	GatewayTransactionID string  `json:"gateway_transaction_id"`
	Amount               float64 `json:"amount"`
	Status               string  `json:"status"`
}

// ListFilter narrows the admin and partner listings.
type ListFilter struct {
	Status string
	UserID *uuid.UUID
	Page   int
	Limit  int
}

// Page is one page of bookings.
type Page struct {
	Bookings    []Booking `json:"bookings"`
	CurrentPage int       `json:"current_page"`
	TotalPages  int       `json:"total_pages"`
	Total       int       `json:"total"`
}

// Service defines the interface for the booking orchestrator.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*CreateResult, error)
	// Confirm is called by the payment adapter after a verified charge.
	// Calling it again for a confirmed booking is a no-op.
	Confirm(ctx context.Context, bookingID uuid.UUID, info PaymentInfo) (*Booking, error)
	Cancel(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error)
	AdminCancel(ctx context.Context, bookingID uuid.UUID) (*Booking, error)

	Get(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	List(ctx context.Context, f ListFilter) (*Page, error)
	PartnerBookings(ctx context.Context, partnerID uuid.UUID, f ListFilter) (*Page, error)

	// CompleteExpired settles every confirmed booking whose trip has
	// ended. Failures are isolated per booking; it returns how many
	// bookings were completed.
	CompleteExpired(ctx context.Context) (int, error)
}

// ProductInfo is the catalog view the orchestrator needs.
type ProductInfo struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	PartnerID    uuid.UUID `json:"partner_id"`
	DurationDays int       `json:"duration_days"`
	Image        string    `json:"image"`
}

// CatalogGateway resolves products from the external catalog service.
type CatalogGateway interface {
	Product(ctx context.Context, id uuid.UUID) (*ProductInfo, error)
	ProductsByPartner(ctx context.Context, partnerID uuid.UUID) ([]ProductInfo, error)
}

// InventoryInfo is the availability-ledger view of one departure.
type InventoryInfo struct {
	ID    uuid.UUID `json:"id"`
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Line is one (inventory item, quantity) pair sent to the ledger.
type Line struct {
	InventoryID uuid.UUID `json:"inventoryId"`
	Quantity    int       `json:"quantity"`
}

// InventoryGateway talks to the availability ledger.
type InventoryGateway interface {
	Get(ctx context.Context, id uuid.UUID) (*InventoryInfo, error)
	Check(ctx context.Context, lines []Line) error
	Reserve(ctx context.Context, lines []Line) error
	Release(ctx context.Context, lines []Line) error
}

// PromotionQuote is a validated discount for a given subtotal.
type PromotionQuote struct {
	PromotionID uuid.UUID `json:"promotion_id"`
	Discount    float64   `json:"discount"`
}

// PromotionGateway talks to the promotion ledger.
type PromotionGateway interface {
	Quote(ctx context.Context, code string, subtotal float64) (*PromotionQuote, error)
	Redeem(ctx context.Context, id uuid.UUID) error
}

// PaymentGateway talks to the payment adapter.
type PaymentGateway interface {
	PaymentURL(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error)
	Refund(ctx context.Context, bookingID uuid.UUID) error
}

// SettlementGateway triggers revenue distribution for one booking.
type SettlementGateway interface {
	Distribute(ctx context.Context, bookingID, partnerID uuid.UUID, gross, discount float64) error
}

// Notifier sends traveller emails. Calls are fire-and-forget; a
// notification failure never fails the operation that triggered it.
type Notifier interface {
	PaymentSucceeded(ctx context.Context, b *Booking) error
	BookingCancelled(ctx context.Context, b *Booking) error
}
