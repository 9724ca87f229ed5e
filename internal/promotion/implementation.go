// internal/promotion/implementation.go
package promotion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface.
type service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new promotion ledger service.
func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) Create(ctx context.Context, promo Promotion) (*Promotion, error) {
	promo.Code = strings.ToUpper(strings.TrimSpace(promo.Code))
	if promo.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	if promo.Type != TypePercentage && promo.Type != TypeFixedAmount {
		return nil, fmt.Errorf("invalid promotion type %q", promo.Type)
	}
	if promo.Value <= 0 {
		return nil, fmt.Errorf("value must be positive")
	}
	if promo.TotalQuantity <= 0 {
		return nil, fmt.Errorf("total_quantity must be positive")
	}

	promo.ID = uuid.New()
	promo.UsedQuantity = 0
	promo.IsActive = true
	if err := s.store.Insert(ctx, &promo); err != nil {
		return nil, fmt.Errorf("insert promotion: %w", err)
	}
	return &promo, nil
}

func (s *service) List(ctx context.Context) ([]Promotion, error) {
	return s.store.List(ctx)
}

func (s *service) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	return s.store.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *service) Toggle(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	promo, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	promo.IsActive = !promo.IsActive
	if err := s.store.SetActive(ctx, id, promo.IsActive); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *service) Quote(ctx context.Context, code string, subtotal float64) (*Quote, error) {
	promo, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.validate(promo); err != nil {
		return nil, err
	}
	if promo.MinSpend > subtotal {
		return nil, &MinSpendError{MinSpend: promo.MinSpend}
	}

	var discount float64
	switch promo.Type {
	case TypePercentage:
		discount = subtotal * promo.Value / 100
	case TypeFixedAmount:
		discount = promo.Value
	}

	// Never discount past the order value.
	if discount > subtotal {
		discount = subtotal
	}

	return &Quote{PromotionID: promo.ID, Code: promo.Code, Discount: discount}, nil
}

func (s *service) Redeem(ctx context.Context, id uuid.UUID) error {
	promo, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.validate(promo); err != nil {
		return err
	}
	return s.store.ConsumeUse(ctx, id)
}

func (s *service) validate(promo *Promotion) error {
	if !promo.IsActive {
		return ErrNotFound
	}
	if promo.UsedQuantity >= promo.TotalQuantity {
		return ErrExhausted
	}

	now := s.now()
	if promo.ValidFrom != nil && promo.ValidFrom.After(now) {
		return ErrNotYetValid
	}
	if promo.ValidTo != nil && promo.ValidTo.Before(now) {
		return ErrExpired
	}
	return nil
}
