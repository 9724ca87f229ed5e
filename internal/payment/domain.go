// internal/payment/domain.go
package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusSucceeded = "succeeded"
	StatusRefunded  = "refunded"
)

const GatewayVNPay = "vnpay"

// Payment is a recorded gateway charge for a booking.
type Payment struct {
	ID                   uuid.UUID  `json:"id"`
	BookingID            uuid.UUID  `json:"booking_id"`
	Amount               float64    `json:"amount"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	Gateway              string     `json:"gateway"`
	GatewayTransactionID string     `json:"gateway_transaction_id"`
	AmountRefunded       float64    `json:"amount_refunded"`
	TransactionDate      time.Time  `json:"transaction_date"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Info is the payment summary forwarded to the booking service on a
// successful gateway return.
type Info struct {
	Gateway              string  `json:"gateway"`
	GatewayTransactionID string  `json:"gateway_transaction_id"`
	Amount               float64 `json:"amount"`
	Status               string  `json:"status"`
}

var (
	ErrNoRefundablePayment = errors.New("no successful payment found to refund")
	ErrUnsupportedGateway  = errors.New("refund not supported for gateway")
	ErrInvalidSignature    = errors.New("gateway signature mismatch")
)
