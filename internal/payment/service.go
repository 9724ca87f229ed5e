// internal/payment/service.go
package payment

import (
	"context"

	"github.com/google/uuid"
)

// CreateURLInput carries everything needed to build a hosted payment
// page redirect for a pending booking.
type CreateURLInput struct {
	BookingID uuid.UUID
	Amount    float64
	BankCode  string
	Locale    string
	ClientIP  string
}

// ReturnResult is what the gateway return handler reports back to the
// browser redirect.
type ReturnResult struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	BookingID uuid.UUID `json:"booking_id,omitempty"`
}

// ListResult is one page of payments for the admin view.
type ListResult struct {
	Payments    []Payment `json:"payments"`
	CurrentPage int       `json:"current_page"`
	TotalPages  int       `json:"total_pages"`
	Total       int       `json:"total"`
}

// Service defines the interface for the payment adapter.
type Service interface {
	CreateURL(ctx context.Context, in CreateURLInput) (string, error)
	// HandleGatewayReturn verifies the signed callback and, on success,
	// records the payment and asks the booking service to confirm. A
	// confirm failure is reported for reconciliation, never to the
	// traveller.
	HandleGatewayReturn(ctx context.Context, params map[string][]string) (*ReturnResult, error)
	Refund(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	List(ctx context.Context, status string, page, limit int) (*ListResult, error)
}

// BookingConfirmer is the slice of the booking service the adapter
// calls after a verified charge.
type BookingConfirmer interface {
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, info Info) error
}

// RefundRecorder writes the refund leg into the settlement ledger.
type RefundRecorder interface {
	RecordRefund(ctx context.Context, bookingID uuid.UUID, amount float64, note string) error
}
