// internal/settlement/domain.go
package settlement

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Transaction types. Amounts are signed from the platform's point of
// view for WITHDRAWAL; everything else is stored as a positive figure.
const (
	TypeIncome      = "INCOME"
	TypeCommission  = "COMMISSION"
	TypeVoucherCost = "VOUCHER_COST"
	TypeWithdrawal  = "WITHDRAWAL"
	TypeRefund      = "REFUND"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// Transaction is one row of the settlement ledger. BookingID plus Type
// is unique so a replayed distribution cannot double-write a leg.
type Transaction struct {
	ID        uuid.UUID  `json:"id"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	PartnerID *uuid.UUID `json:"partner_id,omitempty"`
	Type      string     `json:"type"`
	Amount    float64    `json:"amount"`
	Status    string     `json:"status"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Breakdown is the computed split for one booking's gross revenue.
type Breakdown struct {
	Gross         float64 `json:"gross"`
	Commission    float64 `json:"commission"`
	PartnerPayout float64 `json:"partner_payout"`
	Discount      float64 `json:"discount"`
	PlatformNet   float64 `json:"platform_net"`
}

var (
	ErrDuplicateEntry      = errors.New("ledger entry already recorded")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
