// internal/promotion/implementation_test.go
package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, promo *Promotion) error {
	return m.Called(ctx, promo).Error(0)
}

func (m *mockStore) List(ctx context.Context) ([]Promotion, error) {
	args := m.Called(ctx)
	if promos := args.Get(0); promos != nil {
		return promos.([]Promotion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	args := m.Called(ctx, code)
	if promo := args.Get(0); promo != nil {
		return promo.(*Promotion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	args := m.Called(ctx, id)
	if promo := args.Get(0); promo != nil {
		return promo.(*Promotion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockStore) ConsumeUse(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func validPromo() *Promotion {
	return &Promotion{
		ID:            uuid.New(),
		Code:          "SUMMER10",
		Type:          TypePercentage,
		Value:         10,
		TotalQuantity: 100,
		UsedQuantity:  0,
		IsActive:      true,
	}
}

func TestQuotePercentage(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	promo := validPromo()
	store.On("GetByCode", mock.Anything, "SUMMER10").Return(promo, nil)

	quote, err := svc.Quote(context.Background(), "summer10", 1000000)

	require.NoError(t, err)
	assert.Equal(t, promo.ID, quote.PromotionID)
	assert.Equal(t, 100000.0, quote.Discount)
}

func TestQuoteFixedAmountCappedAtSubtotal(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	promo := validPromo()
	promo.Type = TypeFixedAmount
	promo.Value = 500000
	store.On("GetByCode", mock.Anything, "SUMMER10").Return(promo, nil)

	quote, err := svc.Quote(context.Background(), "SUMMER10", 300000)

	require.NoError(t, err)
	assert.Equal(t, 300000.0, quote.Discount)
}

func TestQuoteEnforcesMinSpend(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	promo := validPromo()
	promo.MinSpend = 2000000
	store.On("GetByCode", mock.Anything, "SUMMER10").Return(promo, nil)

	_, err := svc.Quote(context.Background(), "SUMMER10", 1000000)

	var minSpend *MinSpendError
	require.ErrorAs(t, err, &minSpend)
	assert.Equal(t, 2000000.0, minSpend.MinSpend)
}

func TestQuoteRejectsExhausted(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	promo := validPromo()
	promo.UsedQuantity = promo.TotalQuantity
	store.On("GetByCode", mock.Anything, "SUMMER10").Return(promo, nil)

	_, err := svc.Quote(context.Background(), "SUMMER10", 1000000)

	require.ErrorIs(t, err, ErrExhausted)
}

func TestQuoteValidityWindow(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store).(*service)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	future := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("not yet valid", func(t *testing.T) {
		promo := validPromo()
		promo.ValidFrom = &future
		store.On("GetByCode", mock.Anything, "SUMMER10").Return(promo, nil).Once()

		_, err := svc.Quote(context.Background(), "SUMMER10", 1000000)
		require.ErrorIs(t, err, ErrNotYetValid)
	})

	t.Run("expired", func(t *testing.T) {
		promo := validPromo()
		promo.ValidTo = &past
		store.On("GetByCode", mock.Anything, "SUMMER10").Return(promo, nil).Once()

		_, err := svc.Quote(context.Background(), "SUMMER10", 1000000)
		require.ErrorIs(t, err, ErrExpired)
	})
}

func TestRedeemConsumesUse(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	promo := validPromo()
	store.On("GetByID", mock.Anything, promo.ID).Return(promo, nil)
	store.On("ConsumeUse", mock.Anything, promo.ID).Return(nil)

	require.NoError(t, svc.Redeem(context.Background(), promo.ID))
	store.AssertCalled(t, "ConsumeUse", mock.Anything, promo.ID)
}

func TestRedeemSurfacesExhaustion(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	promo := validPromo()
	store.On("GetByID", mock.Anything, promo.ID).Return(promo, nil)
	store.On("ConsumeUse", mock.Anything, promo.ID).Return(ErrExhausted)

	require.ErrorIs(t, svc.Redeem(context.Background(), promo.ID), ErrExhausted)
}

func TestCreateNormalizesCode(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store)

	store.On("Insert", mock.Anything, mock.MatchedBy(func(p *Promotion) bool {
		return p.Code == "WELCOME" && p.UsedQuantity == 0 && p.IsActive
	})).Return(nil)

	created, err := svc.Create(context.Background(), Promotion{
		Code:          "  welcome ",
		Type:          TypeFixedAmount,
		Value:         50000,
		TotalQuantity: 10,
		UsedQuantity:  7,
	})

	require.NoError(t, err)
	assert.Equal(t, "WELCOME", created.Code)
	assert.Zero(t, created.UsedQuantity)
}
