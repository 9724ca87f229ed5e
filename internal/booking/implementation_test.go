// internal/booking/implementation_test.go
package booking

import (
	"context"
	"errors"
	"net/http"
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

func (m *mockStore) Insert(ctx context.Context, b *Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, paymentStatus *string) (bool, error) {
	args := m.Called(ctx, id, from, to, paymentStatus)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) AppendPayment(ctx context.Context, bookingID uuid.UUID, rec PaymentRecord) error {
	return m.Called(ctx, bookingID, rec).Error(0)
}

func (m *mockStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	args := m.Called(ctx, userID)
	if bs := args.Get(0); bs != nil {
		return bs.([]Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) List(ctx context.Context, f ListFilter) ([]Booking, int, error) {
	args := m.Called(ctx, f)
	if bs := args.Get(0); bs != nil {
		return bs.([]Booking), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *mockStore) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID, f ListFilter) ([]Booking, int, error) {
	args := m.Called(ctx, productIDs, f)
	if bs := args.Get(0); bs != nil {
		return bs.([]Booking), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *mockStore) ListExpiredConfirmed(ctx context.Context, now time.Time) ([]Booking, error) {
	args := m.Called(ctx, now)
	if bs := args.Get(0); bs != nil {
		return bs.([]Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) InsertReconciliation(ctx context.Context, rec ReconciliationRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Product(ctx context.Context, id uuid.UUID) (*ProductInfo, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*ProductInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalog) ProductsByPartner(ctx context.Context, partnerID uuid.UUID) ([]ProductInfo, error) {
	args := m.Called(ctx, partnerID)
	if ps := args.Get(0); ps != nil {
		return ps.([]ProductInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) Get(ctx context.Context, id uuid.UUID) (*InventoryInfo, error) {
	args := m.Called(ctx, id)
	if info := args.Get(0); info != nil {
		return info.(*InventoryInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInventory) Check(ctx context.Context, lines []Line) error {
	return m.Called(ctx, lines).Error(0)
}

func (m *mockInventory) Reserve(ctx context.Context, lines []Line) error {
	return m.Called(ctx, lines).Error(0)
}

func (m *mockInventory) Release(ctx context.Context, lines []Line) error {
	return m.Called(ctx, lines).Error(0)
}

type mockPromotions struct {
	mock.Mock
}

func (m *mockPromotions) Quote(ctx context.Context, code string, subtotal float64) (*PromotionQuote, error) {
	args := m.Called(ctx, code, subtotal)
	if q := args.Get(0); q != nil {
		return q.(*PromotionQuote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPromotions) Redeem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) PaymentURL(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error) {
	args := m.Called(ctx, bookingID, amount)
	return args.String(0), args.Error(1)
}

func (m *mockPayments) Refund(ctx context.Context, bookingID uuid.UUID) error {
	return m.Called(ctx, bookingID).Error(0)
}

type mockSettlement struct {
	mock.Mock
}

func (m *mockSettlement) Distribute(ctx context.Context, bookingID, partnerID uuid.UUID, gross, discount float64) error {
	return m.Called(ctx, bookingID, partnerID, gross, discount).Error(0)
}

// stubNotifier counts sends without the async race a mock would have.
type stubNotifier struct {
	succeeded chan uuid.UUID
	cancelled chan uuid.UUID
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{
		succeeded: make(chan uuid.UUID, 8),
		cancelled: make(chan uuid.UUID, 8),
	}
}

func (n *stubNotifier) PaymentSucceeded(ctx context.Context, b *Booking) error {
	n.succeeded <- b.ID
	return nil
}

func (n *stubNotifier) BookingCancelled(ctx context.Context, b *Booking) error {
	n.cancelled <- b.ID
	return nil
}

type fixture struct {
	store      *mockStore
	catalog    *mockCatalog
	inventory  *mockInventory
	promotions *mockPromotions
	payments   *mockPayments
	settlement *mockSettlement
	notifier   *stubNotifier
	service    Service
}

func newFixture() *fixture {
	f := &fixture{
		store:      new(mockStore),
		catalog:    new(mockCatalog),
		inventory:  new(mockInventory),
		promotions: new(mockPromotions),
		payments:   new(mockPayments),
		settlement: new(mockSettlement),
		notifier:   newStubNotifier(),
	}
	f.service = NewService(f.store, f.catalog, f.inventory, f.promotions, f.payments, f.settlement, f.notifier)
	return f
}

func pendingBooking() *Booking {
	return &Booking{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Items: []Item{{
			ProductID:   uuid.New(),
			InventoryID: uuid.New(),
			Quantity:    2,
			UnitPrice:   500000,
		}},
		Pricing: Pricing{TotalBeforeDiscount: 1000000, DiscountAmount: 100000, FinalPrice: 900000},
	}
}

func waitFor(t *testing.T, ch chan uuid.UUID) uuid.UUID {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification was never sent")
		return uuid.Nil
	}
}

func TestCreatePricesFromLedgerNotClient(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	productID := uuid.New()
	inventoryID := uuid.New()
	departure := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)

	f.catalog.On("Product", mock.Anything, productID).
		Return(&ProductInfo{ID: productID, Title: "Ha Long Bay", PartnerID: uuid.New(), DurationDays: 3}, nil)
	f.inventory.On("Get", mock.Anything, inventoryID).
		Return(&InventoryInfo{ID: inventoryID, Date: departure, Price: 1500000}, nil)
	f.inventory.On("Check", mock.Anything, []Line{{InventoryID: inventoryID, Quantity: 2}}).Return(nil)

	var saved *Booking
	f.store.On("Insert", mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		saved = b
		return true
	})).Return(nil)
	f.payments.On("PaymentURL", mock.Anything, mock.Anything, 3000000.0).
		Return("https://gateway.example/pay", nil)

	result, err := f.service.Create(context.Background(), userID, CreateInput{
		Items: []CreateItem{{ProductID: productID, InventoryID: inventoryID, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)
	assert.Equal(t, 3000000.0, result.FinalPrice)
	assert.Equal(t, "https://gateway.example/pay", result.PaymentURL)

	require.NotNil(t, saved)
	assert.Equal(t, 1500000.0, saved.Items[0].UnitPrice)
	assert.Equal(t, "Ha Long Bay", saved.Items[0].Snapshot.Title)
	assert.Equal(t, departure, saved.StartDate)
	assert.Equal(t, departure.AddDate(0, 0, 3), saved.EndDate)
	assert.Equal(t, saved.Pricing.TotalBeforeDiscount-saved.Pricing.DiscountAmount, saved.Pricing.FinalPrice)
}

func TestCreateAppliesPromotionQuote(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	inventoryID := uuid.New()
	promoID := uuid.New()

	f.catalog.On("Product", mock.Anything, productID).
		Return(&ProductInfo{ID: productID, DurationDays: 1}, nil)
	f.inventory.On("Get", mock.Anything, inventoryID).
		Return(&InventoryInfo{ID: inventoryID, Date: time.Now(), Price: 1000000}, nil)
	f.inventory.On("Check", mock.Anything, mock.Anything).Return(nil)
	f.promotions.On("Quote", mock.Anything, "SUMMER10", 1000000.0).
		Return(&PromotionQuote{PromotionID: promoID, Discount: 100000}, nil)

	var saved *Booking
	f.store.On("Insert", mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		saved = b
		return true
	})).Return(nil)
	f.payments.On("PaymentURL", mock.Anything, mock.Anything, 900000.0).Return("url", nil)

	result, err := f.service.Create(context.Background(), uuid.New(), CreateInput{
		Items:         []CreateItem{{ProductID: productID, InventoryID: inventoryID, Quantity: 1}},
		PromotionCode: "SUMMER10",
	})

	require.NoError(t, err)
	assert.Equal(t, 900000.0, result.FinalPrice)
	require.NotNil(t, saved.PromotionID)
	assert.Equal(t, promoID, *saved.PromotionID)
}

func TestCreateFailsOnStockShortfall(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	inventoryID := uuid.New()

	f.catalog.On("Product", mock.Anything, productID).
		Return(&ProductInfo{ID: productID, DurationDays: 1}, nil)
	f.inventory.On("Get", mock.Anything, inventoryID).
		Return(&InventoryInfo{ID: inventoryID, Date: time.Now(), Price: 1000000}, nil)
	f.inventory.On("Check", mock.Anything, mock.Anything).Return(errors.New("not enough stock"))

	_, err := f.service.Create(context.Background(), uuid.New(), CreateInput{
		Items: []CreateItem{{ProductID: productID, InventoryID: inventoryID, Quantity: 5}},
	})

	require.Error(t, err)
	f.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateInvalidPromotionIsFatal(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	inventoryID := uuid.New()

	f.catalog.On("Product", mock.Anything, productID).
		Return(&ProductInfo{ID: productID, DurationDays: 1}, nil)
	f.inventory.On("Get", mock.Anything, inventoryID).
		Return(&InventoryInfo{ID: inventoryID, Date: time.Now(), Price: 1000000}, nil)
	f.inventory.On("Check", mock.Anything, mock.Anything).Return(nil)
	f.promotions.On("Quote", mock.Anything, "BOGUS", mock.Anything).
		Return(nil, errors.New("promotion code not found"))

	_, err := f.service.Create(context.Background(), uuid.New(), CreateInput{
		Items:         []CreateItem{{ProductID: productID, InventoryID: inventoryID, Quantity: 1}},
		PromotionCode: "BOGUS",
	})

	require.Error(t, err)
	f.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	f := newFixture()
	_, err := f.service.Create(context.Background(), uuid.New(), CreateInput{})
	require.ErrorIs(t, err, ErrNoItems)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), uuid.New(), CreateInput{
		Items: []CreateItem{{ProductID: uuid.New(), InventoryID: uuid.New(), Quantity: 0}},
	})

	require.ErrorIs(t, err, ErrInvalidQuantity)
	// A traveller mistake, not an upstream failure.
	assert.Equal(t, http.StatusBadRequest, statusFor(err))
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentPaid

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)

	got, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{Gateway: "vnpay"})

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	f.inventory.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
}

func TestConfirmRejectsTerminalStates(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	b.Status = StatusCancelled

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)

	_, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{})

	var state *StateError
	require.ErrorAs(t, err, &state)
	assert.Equal(t, StatusCancelled, state.Status)
}

func TestConfirmReserveFailureMarksFailed(t *testing.T) {
	f := newFixture()
	b := pendingBooking()

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.inventory.On("Reserve", mock.Anything, mock.Anything).Return(errors.New("sold out"))
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusPending, StatusFailed, (*string)(nil)).
		Return(true, nil)

	_, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{})

	require.Error(t, err)
	f.store.AssertCalled(t, "UpdateStatus", mock.Anything, b.ID, StatusPending, StatusFailed, (*string)(nil))
	f.store.AssertNotCalled(t, "AppendPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmRedeemFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	promoID := uuid.New()
	b.PromotionID = &promoID

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.inventory.On("Reserve", mock.Anything, mock.Anything).Return(nil)
	f.promotions.On("Redeem", mock.Anything, promoID).Return(errors.New("exhausted"))
	f.store.On("InsertReconciliation", mock.Anything, mock.MatchedBy(func(rec ReconciliationRecord) bool {
		return rec.BookingID == b.ID && rec.Kind == ReconcilePromotionRedeem
	})).Return(nil)
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusPending, StatusConfirmed, mock.Anything).
		Return(true, nil)
	f.store.On("AppendPayment", mock.Anything, b.ID, mock.Anything).Return(nil)

	_, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{Gateway: "vnpay"})

	require.NoError(t, err)
	f.store.AssertCalled(t, "InsertReconciliation", mock.Anything, mock.Anything)
	waitFor(t, f.notifier.succeeded)
}

func TestConfirmAppendsPaymentForFinalPrice(t *testing.T) {
	f := newFixture()
	b := pendingBooking()

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.inventory.On("Reserve", mock.Anything, mock.Anything).Return(nil)
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusPending, StatusConfirmed, mock.MatchedBy(func(ps *string) bool {
		return ps != nil && *ps == PaymentPaid
	})).Return(true, nil)
	f.store.On("AppendPayment", mock.Anything, b.ID, mock.MatchedBy(func(rec PaymentRecord) bool {
		return rec.Amount == b.Pricing.FinalPrice && rec.Status == "succeeded"
	})).Return(nil)

	_, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{Gateway: "vnpay", Amount: 900000})

	require.NoError(t, err)
	waitFor(t, f.notifier.succeeded)
}

func TestConfirmLostRaceReleasesReservation(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	cancelled := *b
	cancelled.Status = StatusCancelled

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	f.inventory.On("Reserve", mock.Anything, mock.Anything).Return(nil)
	// A concurrent cancel won the transition between read and update.
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusPending, StatusConfirmed, mock.Anything).
		Return(false, nil)
	f.inventory.On("Release", mock.Anything,
		[]Line{{InventoryID: b.Items[0].InventoryID, Quantity: b.Items[0].Quantity}}).Return(nil)
	f.store.On("GetByID", mock.Anything, b.ID).Return(&cancelled, nil)

	got, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{Gateway: "vnpay"})

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	f.inventory.AssertNumberOfCalls(t, "Release", 1)
	f.store.AssertNotCalled(t, "AppendPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmLostRaceReleaseFailureIsRecorded(t *testing.T) {
	f := newFixture()
	b := pendingBooking()

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.inventory.On("Reserve", mock.Anything, mock.Anything).Return(nil)
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusPending, StatusConfirmed, mock.Anything).
		Return(false, nil)
	f.inventory.On("Release", mock.Anything, mock.Anything).Return(errors.New("inventory down"))
	f.store.On("InsertReconciliation", mock.Anything, mock.MatchedBy(func(rec ReconciliationRecord) bool {
		return rec.BookingID == b.ID && rec.Kind == ReconcileStockRelease
	})).Return(nil)

	_, err := f.service.Confirm(context.Background(), b.ID, PaymentInfo{})

	require.NoError(t, err)
	f.store.AssertCalled(t, "InsertReconciliation", mock.Anything, mock.Anything)
}

func TestCancelEnforcesOwnership(t *testing.T) {
	f := newFixture()
	b := pendingBooking()

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)

	_, err := f.service.Cancel(context.Background(), b.ID, uuid.New())

	require.ErrorIs(t, err, ErrForbidden)
}

func TestCancelPendingSkipsCompensation(t *testing.T) {
	f := newFixture()
	b := pendingBooking()

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusPending, StatusCancelled, (*string)(nil)).
		Return(true, nil)

	_, err := f.service.Cancel(context.Background(), b.ID, b.UserID)

	require.NoError(t, err)
	f.inventory.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancelConfirmedReleasesAndRefunds(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentPaid

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.inventory.On("Release", mock.Anything, mock.Anything).Return(nil)
	f.payments.On("Refund", mock.Anything, b.ID).Return(nil)
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusConfirmed, StatusCancelled, (*string)(nil)).
		Return(true, nil)

	_, err := f.service.Cancel(context.Background(), b.ID, b.UserID)

	require.NoError(t, err)
	f.inventory.AssertCalled(t, "Release", mock.Anything, mock.Anything)
	f.payments.AssertCalled(t, "Refund", mock.Anything, b.ID)
	waitFor(t, f.notifier.cancelled)
}

func TestCancelCompensationFailuresAreRecorded(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentPaid

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	f.inventory.On("Release", mock.Anything, mock.Anything).Return(errors.New("inventory down"))
	f.payments.On("Refund", mock.Anything, b.ID).Return(errors.New("gateway down"))
	f.store.On("InsertReconciliation", mock.Anything, mock.Anything).Return(nil)
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusConfirmed, StatusCancelled, (*string)(nil)).
		Return(true, nil)

	_, err := f.service.Cancel(context.Background(), b.ID, b.UserID)

	require.NoError(t, err)
	f.store.AssertNumberOfCalls(t, "InsertReconciliation", 2)
	f.store.AssertCalled(t, "UpdateStatus", mock.Anything, b.ID, StatusConfirmed, StatusCancelled, (*string)(nil))
	waitFor(t, f.notifier.cancelled)
}

func TestCancelLostRaceDoesNotCompensate(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentPaid
	cancelled := *b
	cancelled.Status = StatusCancelled

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	// Another cancel claimed the transition first; this one must not
	// release or refund a second time.
	f.store.On("UpdateStatus", mock.Anything, b.ID, StatusConfirmed, StatusCancelled, (*string)(nil)).
		Return(false, nil)
	f.store.On("GetByID", mock.Anything, b.ID).Return(&cancelled, nil)

	_, err := f.service.Cancel(context.Background(), b.ID, b.UserID)

	require.ErrorIs(t, err, ErrAlreadyCancelled)
	f.inventory.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	f := newFixture()
	b := pendingBooking()
	b.Status = StatusCancelled

	f.store.On("GetByID", mock.Anything, b.ID).Return(b, nil)

	_, err := f.service.Cancel(context.Background(), b.ID, b.UserID)

	require.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCompleteExpiredIsolatesFailures(t *testing.T) {
	f := newFixture()

	broken := *pendingBooking()
	broken.Status = StatusConfirmed
	healthy := *pendingBooking()
	healthy.Status = StatusConfirmed
	partnerID := uuid.New()

	f.store.On("ListExpiredConfirmed", mock.Anything, mock.Anything).
		Return([]Booking{broken, healthy}, nil)

	f.catalog.On("Product", mock.Anything, broken.Items[0].ProductID).
		Return(nil, errors.New("catalog down"))
	f.catalog.On("Product", mock.Anything, healthy.Items[0].ProductID).
		Return(&ProductInfo{ID: healthy.Items[0].ProductID, PartnerID: partnerID}, nil)

	f.settlement.On("Distribute", mock.Anything, healthy.ID, partnerID,
		healthy.Pricing.TotalBeforeDiscount, healthy.Pricing.DiscountAmount).Return(nil)
	f.store.On("UpdateStatus", mock.Anything, healthy.ID, StatusConfirmed, StatusCompleted, (*string)(nil)).
		Return(true, nil)

	completed, err := f.service.CompleteExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	f.store.AssertNotCalled(t, "UpdateStatus", mock.Anything, broken.ID, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteExpiredKeepsBookingOnSettlementFailure(t *testing.T) {
	f := newFixture()

	b := *pendingBooking()
	b.Status = StatusConfirmed
	partnerID := uuid.New()

	f.store.On("ListExpiredConfirmed", mock.Anything, mock.Anything).Return([]Booking{b}, nil)
	f.catalog.On("Product", mock.Anything, b.Items[0].ProductID).
		Return(&ProductInfo{ID: b.Items[0].ProductID, PartnerID: partnerID}, nil)
	f.settlement.On("Distribute", mock.Anything, b.ID, partnerID, mock.Anything, mock.Anything).
		Return(errors.New("settlement down"))

	completed, err := f.service.CompleteExpired(context.Background())

	require.NoError(t, err)
	assert.Zero(t, completed)
	f.store.AssertNotCalled(t, "UpdateStatus", mock.Anything, b.ID, StatusConfirmed, StatusCompleted, (*string)(nil))
}
