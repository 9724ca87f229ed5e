// internal/settlement/implementation.go
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"
)

const DefaultCommissionRate = 0.15

// service implements the Service interface.
type service struct {
	ledger LedgerStore
	wallet WalletUpdater
	rate   float64
}

// NewService creates a new settlement service. A non-positive rate
// falls back to the default commission.
func NewService(ledger LedgerStore, wallet WalletUpdater, rate float64) Service {
	if rate <= 0 || rate >= 1 {
		rate = DefaultCommissionRate
	}
	return &service{ledger: ledger, wallet: wallet, rate: rate}
}

// Split computes the revenue breakdown without touching storage.
func Split(gross, discount, rate float64) Breakdown {
	commission := math.Round(gross * rate)
	return Breakdown{
		Gross:         gross,
		Commission:    commission,
		PartnerPayout: gross - commission,
		Discount:      discount,
		PlatformNet:   commission - discount,
	}
}

func (s *service) Distribute(ctx context.Context, in DistributeInput) (*Breakdown, error) {
	if in.Gross <= 0 {
		return nil, ErrInvalidAmount
	}

	b := Split(in.Gross, in.Discount, s.rate)
	bookingID := in.BookingID
	partnerID := in.PartnerID

	// The income leg records the full sale value; the commission leg is
	// what the platform keeps of it.
	legs := []Transaction{
		{BookingID: &bookingID, PartnerID: &partnerID, Type: TypeIncome, Amount: b.Gross},
		{BookingID: &bookingID, PartnerID: &partnerID, Type: TypeCommission, Amount: b.Commission},
	}
	if in.Discount > 0 {
		// Voucher cost is borne by the platform, not the partner.
		legs = append(legs, Transaction{BookingID: &bookingID, Type: TypeVoucherCost, Amount: in.Discount})
	}

	for _, leg := range legs {
		if _, err := s.ledger.Append(ctx, leg); err != nil {
			if errors.Is(err, ErrDuplicateEntry) {
				log.Printf("settlement: %s leg for booking %s already recorded", leg.Type, bookingID)
				continue
			}
			return nil, fmt.Errorf("record %s leg: %w", leg.Type, err)
		}
	}

	// Always attempt the credit: if a previous run wrote the legs but
	// died before the wallet call, the reference check below makes the
	// retry land the payout exactly once.
	applied, err := s.wallet.Update(ctx, partnerID, b.PartnerPayout, "settlement:"+bookingID.String())
	if err != nil {
		return nil, fmt.Errorf("credit partner wallet: %w", err)
	}
	if !applied {
		log.Printf("settlement: payout for booking %s already credited", bookingID)
	}

	return &b, nil
}

func (s *service) RequestPayout(ctx context.Context, partnerID uuid.UUID, amount float64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := s.wallet.Balance(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("check wallet balance: %w", err)
	}
	if balance < amount {
		return nil, ErrInsufficientBalance
	}

	withdrawal, err := s.ledger.Append(ctx, Transaction{
		PartnerID: &partnerID,
		Type:      TypeWithdrawal,
		Amount:    -amount,
		Status:    StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("record withdrawal: %w", err)
	}

	applied, err := s.wallet.Update(ctx, partnerID, -amount, "payout:"+withdrawal.ID.String())
	if err != nil || !applied {
		// Undo the pending row so the partner is not shown a
		// withdrawal that never debited anything.
		if delErr := s.ledger.Delete(ctx, withdrawal.ID); delErr != nil {
			log.Printf("settlement: orphaned withdrawal %s: %v", withdrawal.ID, delErr)
		}
		if err != nil {
			return nil, fmt.Errorf("debit partner wallet: %w", err)
		}
		return nil, fmt.Errorf("debit partner wallet: reference %s already used", withdrawal.ID)
	}

	return withdrawal, nil
}

func (s *service) RecordRefund(ctx context.Context, bookingID uuid.UUID, amount float64, note string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	_, err := s.ledger.Append(ctx, Transaction{
		BookingID: &bookingID,
		Type:      TypeRefund,
		Amount:    amount,
		Note:      note,
	})
	if errors.Is(err, ErrDuplicateEntry) {
		return nil
	}
	return err
}

func (s *service) Wallet(ctx context.Context, partnerID uuid.UUID) (*WalletInfo, error) {
	balance, err := s.wallet.Balance(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("get wallet balance: %w", err)
	}

	txs, err := s.ledger.ListByPartner(ctx, partnerID, 50)
	if err != nil {
		return nil, err
	}

	return &WalletInfo{UserID: partnerID, Balance: balance, Transactions: txs}, nil
}
