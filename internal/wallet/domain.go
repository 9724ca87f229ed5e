// internal/wallet/domain.go
package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Account is a seller's running balance of settled funds. The balance is
// only ever mutated through Update; no client request writes it directly.
type Account struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is one applied balance delta. The unique reference makes retried
// updates no-ops instead of double credits.
type Entry struct {
	Reference string    `json:"reference"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrMissingReference = errors.New("wallet update requires a reference")
