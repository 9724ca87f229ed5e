// internal/promotion/domain.go
package promotion

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Promotion is a discount code with a bounded usage counter.
// UsedQuantity is only ever written by Redeem.
type Promotion struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	Type          string     `json:"type"`
	Value         float64    `json:"value"`
	TotalQuantity int        `json:"total_quantity"`
	UsedQuantity  int        `json:"used_quantity"`
	IsActive      bool       `json:"is_active"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidTo       *time.Time `json:"valid_to,omitempty"`
	MinSpend      float64    `json:"min_spend"`
	CreatedAt     time.Time  `json:"created_at"`
}

const (
	TypePercentage  = "percentage"
	TypeFixedAmount = "fixed_amount"
)

// Quote is the discount a code yields for a given order subtotal.
type Quote struct {
	PromotionID uuid.UUID `json:"promotionId"`
	Code        string    `json:"code"`
	Discount    float64   `json:"discount"`
}

var (
	ErrNotFound    = errors.New("promotion code not found or inactive")
	ErrExhausted   = errors.New("promotion has no remaining uses")
	ErrNotYetValid = errors.New("promotion is not valid yet")
	ErrExpired     = errors.New("promotion has expired")
)

// MinSpendError reports the minimum order value a code requires.
type MinSpendError struct {
	MinSpend float64
}

func (e *MinSpendError) Error() string {
	return fmt.Sprintf("order does not meet the minimum spend of %.0f", e.MinSpend)
}
