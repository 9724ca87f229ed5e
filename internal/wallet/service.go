// internal/wallet/service.go
package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the wallet balance service.
type Service interface {
	// Update applies a signed delta exactly once per reference. It reports
	// whether the delta was applied; a repeated reference succeeds without
	// touching the balance.
	Update(ctx context.Context, userID uuid.UUID, amount float64, reference string) (bool, error)
	Get(ctx context.Context, userID uuid.UUID) (*Account, error)
}
