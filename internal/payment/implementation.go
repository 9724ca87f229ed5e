// internal/payment/implementation.go
package payment

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface.
type service struct {
	store   Store
	booking BookingConfirmer
	refunds RefundRecorder
	cfg     GatewayConfig
	now     func() time.Time
}

// NewService creates a new payment service.
func NewService(store Store, booking BookingConfirmer, refunds RefundRecorder, cfg GatewayConfig) Service {
	return &service{
		store:   store,
		booking: booking,
		refunds: refunds,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *service) CreateURL(ctx context.Context, in CreateURLInput) (string, error) {
	if in.Amount <= 0 {
		return "", fmt.Errorf("invalid amount %v", in.Amount)
	}

	locale := in.Locale
	if locale == "" {
		locale = "vn"
	}
	ip := in.ClientIP
	if ip == "" || ip == "::1" {
		ip = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    s.cfg.TmnCode,
		"vnp_Locale":     locale,
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     in.BookingID.String(),
		"vnp_OrderInfo":  "Thanh toan don hang:" + in.BookingID.String(),
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(int64(math.Round(in.Amount))*100, 10),
		"vnp_ReturnUrl":  s.cfg.ReturnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": s.now().Format("20060102150405"),
	}
	if in.BankCode != "" {
		params["vnp_BankCode"] = in.BankCode
	}

	params["vnp_SecureHash"] = signParams(params, s.cfg.HashSecret)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var query strings.Builder
	for i, k := range keys {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(k))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(params[k]))
	}

	return s.cfg.PayURL + "?" + query.String(), nil
}

func (s *service) HandleGatewayReturn(ctx context.Context, params map[string][]string) (*ReturnResult, error) {
	values := url.Values(params)

	if !verifySignature(values, s.cfg.HashSecret) {
		return nil, ErrInvalidSignature
	}

	code := values.Get("vnp_ResponseCode")
	if code != "00" {
		return &ReturnResult{Status: "failed", Message: "Payment Failed", Code: code}, nil
	}

	// Some gateways suffix the reference for retried attempts.
	ref := values.Get("vnp_TxnRef")
	if i := strings.IndexByte(ref, '_'); i >= 0 {
		ref = ref[:i]
	}
	bookingID, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction reference %q: %w", ref, err)
	}

	rawAmount, err := strconv.ParseInt(values.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway amount: %w", err)
	}
	amount := float64(rawAmount) / 100

	if _, err := s.store.UpsertSucceeded(ctx, Payment{
		BookingID:            bookingID,
		Amount:               amount,
		Gateway:              GatewayVNPay,
		GatewayTransactionID: values.Get("vnp_TransactionNo"),
	}); err != nil {
		// The charge already happened at the gateway; keep going so the
		// booking still gets confirmed.
		log.Printf("payment: recording charge for booking %s failed: %v", bookingID, err)
	}

	info := Info{
		Gateway:              GatewayVNPay,
		GatewayTransactionID: values.Get("vnp_TransactionNo"),
		Amount:               amount,
		Status:               StatusSucceeded,
	}
	if err := s.booking.ConfirmPayment(ctx, bookingID, info); err != nil {
		log.Printf("payment: booking confirm sync failed for %s: %v", bookingID, err)
		return &ReturnResult{
			Status:    "success",
			Message:   "Payment Successful (Sync Warning)",
			BookingID: bookingID,
		}, nil
	}

	return &ReturnResult{Status: "success", Message: "Payment Successful", BookingID: bookingID}, nil
}

func (s *service) Refund(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	p, err := s.store.FindSucceeded(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if p.Gateway != GatewayVNPay {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGateway, p.Gateway)
	}

	refunded, err := s.store.MarkRefunded(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if err := s.refunds.RecordRefund(ctx, bookingID, refunded.Amount, "gateway refund"); err != nil {
		log.Printf("payment: refund ledger entry for booking %s failed: %v", bookingID, err)
	}

	return refunded, nil
}

func (s *service) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	return s.store.ListForBooking(ctx, bookingID)
}

func (s *service) List(ctx context.Context, status string, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	payments, total, err := s.store.List(ctx, status, page, limit)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Payments:    payments,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		Total:       total,
	}, nil
}
