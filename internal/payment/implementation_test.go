// internal/payment/implementation_test.go
package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"
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

func (m *mockStore) UpsertSucceeded(ctx context.Context, p Payment) (*Payment, error) {
	args := m.Called(ctx, p)
	if saved := args.Get(0); saved != nil {
		return saved.(*Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) FindSucceeded(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	args := m.Called(ctx, bookingID)
	if p := args.Get(0); p != nil {
		return p.(*Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) MarkRefunded(ctx context.Context, id uuid.UUID) (*Payment, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	args := m.Called(ctx, bookingID)
	if ps := args.Get(0); ps != nil {
		return ps.([]Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) List(ctx context.Context, status string, page, limit int) ([]Payment, int, error) {
	args := m.Called(ctx, status, page, limit)
	if ps := args.Get(0); ps != nil {
		return ps.([]Payment), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, info Info) error {
	return m.Called(ctx, bookingID, info).Error(0)
}

type mockRefunds struct {
	mock.Mock
}

func (m *mockRefunds) RecordRefund(ctx context.Context, bookingID uuid.UUID, amount float64, note string) error {
	return m.Called(ctx, bookingID, amount, note).Error(0)
}

var testConfig = GatewayConfig{
	TmnCode:    "DEMO01",
	HashSecret: "supersecret",
	PayURL:     "https://sandbox.gateway.example/paymentv2/vpcpay.html",
	ReturnURL:  "https://app.example/payment/vnpay-return",
}

func newTestService(store *mockStore, booking *mockConfirmer, refunds *mockRefunds) *service {
	svc := NewService(store, booking, refunds, testConfig).(*service)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC) }
	return svc
}

// signedCallback builds a gateway return payload signed the way the
// gateway signs its redirects.
func signedCallback(params map[string]string) url.Values {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("vnp_SecureHash", signParams(params, testConfig.HashSecret))
	return values
}

func TestSignParamsRoundTrip(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":       uuid.NewString(),
		"vnp_Amount":       "90000000",
		"vnp_ResponseCode": "00",
		"vnp_OrderInfo":    "Thanh toan don hang",
	}

	assert.True(t, verifySignature(signedCallback(params), testConfig.HashSecret))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef": uuid.NewString(),
		"vnp_Amount": "90000000",
	}
	values := signedCallback(params)
	values.Set("vnp_Amount", "1")

	assert.False(t, verifySignature(values, testConfig.HashSecret))
}

func TestVerifySignatureIgnoresHashType(t *testing.T) {
	params := map[string]string{"vnp_TxnRef": uuid.NewString()}
	values := signedCallback(params)
	values.Set("vnp_SecureHashType", "HMACSHA512")

	assert.True(t, verifySignature(values, testConfig.HashSecret))
}

func TestVerifySignatureAcceptsUppercaseHash(t *testing.T) {
	params := map[string]string{"vnp_TxnRef": uuid.NewString()}
	values := signedCallback(params)
	values.Set("vnp_SecureHash", strings.ToUpper(values.Get("vnp_SecureHash")))

	assert.True(t, verifySignature(values, testConfig.HashSecret))
}

func TestCreateURLSignsSortedQuery(t *testing.T) {
	svc := newTestService(new(mockStore), new(mockConfirmer), new(mockRefunds))
	bookingID := uuid.New()

	raw, err := svc.CreateURL(context.Background(), CreateURLInput{
		BookingID: bookingID,
		Amount:    900000,
		BankCode:  "NCB",
		ClientIP:  "203.0.113.7",
	})

	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "90000000", q.Get("vnp_Amount"))
	assert.Equal(t, bookingID.String(), q.Get("vnp_TxnRef"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	assert.Equal(t, "20260831103000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "vn", q.Get("vnp_Locale"))
	assert.True(t, verifySignature(q, testConfig.HashSecret))
}

func TestCreateURLRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(new(mockStore), new(mockConfirmer), new(mockRefunds))

	_, err := svc.CreateURL(context.Background(), CreateURLInput{BookingID: uuid.New(), Amount: 0})

	require.Error(t, err)
}

func TestHandleGatewayReturnConfirmsBooking(t *testing.T) {
	store := new(mockStore)
	booking := new(mockConfirmer)
	svc := newTestService(store, booking, new(mockRefunds))

	bookingID := uuid.New()
	values := signedCallback(map[string]string{
		"vnp_ResponseCode":  "00",
		"vnp_TxnRef":        bookingID.String() + "_1693471800",
		"vnp_Amount":        "90000000",
		"vnp_TransactionNo": "14567890",
	})

	store.On("UpsertSucceeded", mock.Anything, mock.MatchedBy(func(p Payment) bool {
		return p.BookingID == bookingID && p.Amount == 900000 && p.GatewayTransactionID == "14567890"
	})).Return(&Payment{ID: uuid.New()}, nil)
	booking.On("ConfirmPayment", mock.Anything, bookingID, Info{
		Gateway:              GatewayVNPay,
		GatewayTransactionID: "14567890",
		Amount:               900000,
		Status:               StatusSucceeded,
	}).Return(nil)

	result, err := svc.HandleGatewayReturn(context.Background(), values)

	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, bookingID, result.BookingID)
	store.AssertExpectations(t)
	booking.AssertExpectations(t)
}

func TestHandleGatewayReturnRejectsBadSignature(t *testing.T) {
	svc := newTestService(new(mockStore), new(mockConfirmer), new(mockRefunds))

	values := signedCallback(map[string]string{"vnp_ResponseCode": "00"})
	values.Set("vnp_ResponseCode", "24")

	_, err := svc.HandleGatewayReturn(context.Background(), values)

	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandleGatewayReturnReportsDecline(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockConfirmer), new(mockRefunds))

	values := signedCallback(map[string]string{
		"vnp_ResponseCode": "24",
		"vnp_TxnRef":       uuid.NewString(),
	})

	result, err := svc.HandleGatewayReturn(context.Background(), values)

	require.NoError(t, err)
	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "24", result.Code)
	store.AssertNotCalled(t, "UpsertSucceeded", mock.Anything, mock.Anything)
}

func TestHandleGatewayReturnSurvivesConfirmFailure(t *testing.T) {
	store := new(mockStore)
	booking := new(mockConfirmer)
	svc := newTestService(store, booking, new(mockRefunds))

	bookingID := uuid.New()
	values := signedCallback(map[string]string{
		"vnp_ResponseCode": "00",
		"vnp_TxnRef":       bookingID.String(),
		"vnp_Amount":       "90000000",
	})

	store.On("UpsertSucceeded", mock.Anything, mock.Anything).Return(&Payment{}, nil)
	booking.On("ConfirmPayment", mock.Anything, bookingID, mock.Anything).
		Return(errors.New("booking service down"))

	result, err := svc.HandleGatewayReturn(context.Background(), values)

	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Contains(t, result.Message, "Sync Warning")
}

func TestRefundRecordsLedgerEntry(t *testing.T) {
	store := new(mockStore)
	refunds := new(mockRefunds)
	svc := newTestService(store, new(mockConfirmer), refunds)

	bookingID := uuid.New()
	p := &Payment{ID: uuid.New(), BookingID: bookingID, Gateway: GatewayVNPay, Amount: 900000}
	refunded := &Payment{ID: p.ID, BookingID: bookingID, Gateway: GatewayVNPay, Amount: 900000, Status: StatusRefunded}

	store.On("FindSucceeded", mock.Anything, bookingID).Return(p, nil)
	store.On("MarkRefunded", mock.Anything, p.ID).Return(refunded, nil)
	refunds.On("RecordRefund", mock.Anything, bookingID, 900000.0, "gateway refund").Return(nil)

	got, err := svc.Refund(context.Background(), bookingID)

	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
	refunds.AssertExpectations(t)
}

func TestRefundToleratesLedgerFailure(t *testing.T) {
	store := new(mockStore)
	refunds := new(mockRefunds)
	svc := newTestService(store, new(mockConfirmer), refunds)

	bookingID := uuid.New()
	p := &Payment{ID: uuid.New(), BookingID: bookingID, Gateway: GatewayVNPay, Amount: 900000}

	store.On("FindSucceeded", mock.Anything, bookingID).Return(p, nil)
	store.On("MarkRefunded", mock.Anything, p.ID).Return(p, nil)
	refunds.On("RecordRefund", mock.Anything, bookingID, mock.Anything, mock.Anything).
		Return(errors.New("ledger down"))

	_, err := svc.Refund(context.Background(), bookingID)

	require.NoError(t, err)
}

func TestRefundRejectsUnsupportedGateway(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockConfirmer), new(mockRefunds))

	bookingID := uuid.New()
	store.On("FindSucceeded", mock.Anything, bookingID).
		Return(&Payment{ID: uuid.New(), Gateway: "stripe"}, nil)

	_, err := svc.Refund(context.Background(), bookingID)

	require.ErrorIs(t, err, ErrUnsupportedGateway)
	store.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
}

func TestRefundFailsWithoutSucceededPayment(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockConfirmer), new(mockRefunds))

	bookingID := uuid.New()
	store.On("FindSucceeded", mock.Anything, bookingID).Return(nil, ErrNoRefundablePayment)

	_, err := svc.Refund(context.Background(), bookingID)

	require.ErrorIs(t, err, ErrNoRefundablePayment)
}
