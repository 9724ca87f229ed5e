// internal/settlement/service.go
package settlement

import (
	"context"

	"github.com/google/uuid"
)

// DistributeInput carries everything needed to split one booking's
// revenue. Discount is the voucher value already deducted from what
// the traveller paid; Gross is the pre-discount total.
type DistributeInput struct {
	BookingID uuid.UUID `json:"bookingId"`
	PartnerID uuid.UUID `json:"partnerId"`
	Gross     float64   `json:"gross"`
	Discount  float64   `json:"discount"`
}

// WalletInfo is the partner-facing view of their settled funds.
type WalletInfo struct {
	UserID       uuid.UUID     `json:"user_id"`
	Balance      float64       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// Service defines the interface for the settlement engine.
type Service interface {
	// Distribute splits a completed booking's revenue between the
	// partner and the platform. Safe to call repeatedly for the same
	// booking; only the first call moves money.
	Distribute(ctx context.Context, in DistributeInput) (*Breakdown, error)
	// RequestPayout debits the partner's wallet and records a pending
	// withdrawal for manual processing.
	RequestPayout(ctx context.Context, partnerID uuid.UUID, amount float64) (*Transaction, error)
	// RecordRefund writes a refund leg against a cancelled booking.
	RecordRefund(ctx context.Context, bookingID uuid.UUID, amount float64, note string) error
	Wallet(ctx context.Context, partnerID uuid.UUID) (*WalletInfo, error)
}

// WalletUpdater is the slice of the wallet service the settlement
// engine needs.
type WalletUpdater interface {
	Update(ctx context.Context, userID uuid.UUID, amount float64, reference string) (bool, error)
	Balance(ctx context.Context, userID uuid.UUID) (float64, error)
}
