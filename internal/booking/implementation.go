// internal/booking/implementation.go
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// service implements the Service interface.
type service struct {
	store      Store
	catalog    CatalogGateway
	inventory  InventoryGateway
	promotions PromotionGateway
	payments   PaymentGateway
	settlement SettlementGateway
	notifier   Notifier
	limiter    *rate.Limiter
}

// NewService creates a new booking service.
func NewService(store Store, catalog CatalogGateway, inventory InventoryGateway,
	promotions PromotionGateway, payments PaymentGateway,
	settlement SettlementGateway, notifier Notifier) Service {
	return &service{
		store:      store,
		catalog:    catalog,
		inventory:  inventory,
		promotions: promotions,
		payments:   payments,
		settlement: settlement,
		notifier:   notifier,
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*CreateResult, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %d for item %s", ErrInvalidQuantity, item.Quantity, item.InventoryID)
		}
	}

	// The first item is the main tour; its departure and duration
	// anchor the trip window.
	main := in.Items[0]
	product, err := s.catalog.Product(ctx, main.ProductID)
	if err != nil {
		return nil, fmt.Errorf("resolve product %s: %w", main.ProductID, err)
	}
	departure, err := s.inventory.Get(ctx, main.InventoryID)
	if err != nil {
		return nil, fmt.Errorf("resolve departure %s: %w", main.InventoryID, err)
	}

	duration := product.DurationDays
	if duration <= 0 {
		duration = 1
	}
	startDate := departure.Date
	endDate := startDate.AddDate(0, 0, duration)

	// Snapshot every line at the ledger's current price. Client-sent
	// prices are never trusted.
	var total float64
	items := make([]Item, 0, len(in.Items))
	lines := make([]Line, 0, len(in.Items))
	for _, reqItem := range in.Items {
		inv := departure
		if reqItem.InventoryID != main.InventoryID {
			if inv, err = s.inventory.Get(ctx, reqItem.InventoryID); err != nil {
				return nil, fmt.Errorf("resolve departure %s: %w", reqItem.InventoryID, err)
			}
		}

		total += inv.Price * float64(reqItem.Quantity)
		items = append(items, Item{
			ProductID:   reqItem.ProductID,
			InventoryID: reqItem.InventoryID,
			ProductType: reqItem.ProductType,
			Quantity:    reqItem.Quantity,
			UnitPrice:   inv.Price,
			Snapshot: Snapshot{
				Title:        product.Title,
				Image:        product.Image,
				DurationDays: duration,
			},
		})
		lines = append(lines, Line{InventoryID: reqItem.InventoryID, Quantity: reqItem.Quantity})
	}

	if err := s.inventory.Check(ctx, lines); err != nil {
		return nil, fmt.Errorf("stock check: %w", err)
	}

	var discount float64
	var promotionID *uuid.UUID
	if in.PromotionCode != "" {
		quote, err := s.promotions.Quote(ctx, in.PromotionCode, total)
		if err != nil {
			return nil, fmt.Errorf("promotion %q: %w", in.PromotionCode, err)
		}
		discount = quote.Discount
		promotionID = &quote.PromotionID
	}

	b := &Booking{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		StartDate:     startDate,
		EndDate:       endDate,
		Items:         items,
		Pricing: Pricing{
			TotalBeforeDiscount: total,
			DiscountAmount:      discount,
			FinalPrice:          total - discount,
		},
		PromotionID: promotionID,
		Passengers:  in.Passengers,
		Contact:     in.Contact,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	paymentURL, err := s.payments.PaymentURL(ctx, b.ID, b.Pricing.FinalPrice)
	if err != nil {
		// The pending booking survives; the traveller can retry payment.
		log.Printf("booking %s: payment url failed: %v", b.ID, err)
	}

	return &CreateResult{
		BookingID:  b.ID,
		Status:     b.Status,
		FinalPrice: b.Pricing.FinalPrice,
		PaymentURL: paymentURL,
	}, nil
}

func (s *service) Confirm(ctx context.Context, bookingID uuid.UUID, info PaymentInfo) (*Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case StatusConfirmed:
		// The gateway retried its callback.
		return b, nil
	case StatusPending:
	default:
		return nil, &StateError{Status: b.Status}
	}

	if err := s.inventory.Reserve(ctx, s.lines(b)); err != nil {
		if _, markErr := s.store.UpdateStatus(ctx, bookingID, StatusPending, StatusFailed, nil); markErr != nil {
			log.Printf("booking %s: marking failed: %v", bookingID, markErr)
		}
		return nil, fmt.Errorf("inventory reservation failed: %w", err)
	}

	// The traveller already paid; a redemption failure must not undo
	// the confirmation.
	if b.PromotionID != nil {
		if err := s.promotions.Redeem(ctx, *b.PromotionID); err != nil {
			log.Printf("booking %s: promotion %s redeem failed: %v", bookingID, *b.PromotionID, err)
			s.reconcile(ctx, bookingID, ReconcilePromotionRedeem,
				fmt.Sprintf("promotion %s: %v", *b.PromotionID, err))
		}
	}

	paid := PaymentPaid
	moved, err := s.store.UpdateStatus(ctx, bookingID, StatusPending, StatusConfirmed, &paid)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost a race with another confirm or a cancel. The winner owns
		// the booking's reservation, so the one made above must be
		// handed back before reporting whatever the booking became.
		if err := s.inventory.Release(ctx, s.lines(b)); err != nil {
			log.Printf("booking %s: releasing lost-race reservation: %v", bookingID, err)
			s.reconcile(ctx, bookingID, ReconcileStockRelease, err.Error())
		}
		return s.store.GetByID(ctx, bookingID)
	}

	if err := s.store.AppendPayment(ctx, bookingID, PaymentRecord{
		Gateway:              info.Gateway,
		GatewayTransactionID: info.GatewayTransactionID,
		Amount:               b.Pricing.FinalPrice,
		Status:               "succeeded",
	}); err != nil {
		log.Printf("booking %s: recording payment: %v", bookingID, err)
	}

	confirmed, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.notify(confirmed, s.notifier.PaymentSucceeded)
	return confirmed, nil
}

func (s *service) Cancel(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return s.processCancellation(ctx, b)
}

func (s *service) AdminCancel(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.processCancellation(ctx, b)
}

func (s *service) processCancellation(ctx context.Context, b *Booking) (*Booking, error) {
	switch b.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusPending:
		if _, err := s.store.UpdateStatus(ctx, b.ID, StatusPending, StatusCancelled, nil); err != nil {
			return nil, err
		}
		return s.store.GetByID(ctx, b.ID)
	case StatusConfirmed:
	default:
		return nil, &StateError{Status: b.Status}
	}

	wasPaid := b.PaymentStatus == PaymentPaid

	// Claim the transition before compensating, so two racing cancels
	// never both release the same reservation or refund twice.
	moved, err := s.store.UpdateStatus(ctx, b.ID, StatusConfirmed, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !moved {
		current, err := s.store.GetByID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == StatusCancelled {
			return nil, ErrAlreadyCancelled
		}
		return nil, &StateError{Status: current.Status}
	}

	if err := s.inventory.Release(ctx, s.lines(b)); err != nil {
		log.Printf("booking %s: stock release failed: %v", b.ID, err)
		s.reconcile(ctx, b.ID, ReconcileStockRelease, err.Error())
	}

	if wasPaid {
		if err := s.payments.Refund(ctx, b.ID); err != nil {
			log.Printf("booking %s: refund request failed: %v", b.ID, err)
			s.reconcile(ctx, b.ID, ReconcileRefund, err.Error())
		}
	}

	cancelled, err := s.store.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if wasPaid {
		s.notify(cancelled, s.notifier.BookingCancelled)
	}
	return cancelled, nil
}

func (s *service) Get(ctx context.Context, bookingID, userID uuid.UUID) (*Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) List(ctx context.Context, f ListFilter) (*Page, error) {
	bookings, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return page(bookings, total, f), nil
}

func (s *service) PartnerBookings(ctx context.Context, partnerID uuid.UUID, f ListFilter) (*Page, error) {
	products, err := s.catalog.ProductsByPartner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve partner products: %w", err)
	}
	if len(products) == 0 {
		return page(nil, 0, f), nil
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	bookings, total, err := s.store.ListByProductIDs(ctx, ids, f)
	if err != nil {
		return nil, err
	}
	return page(bookings, total, f), nil
}

// CompleteExpired distributes revenue for each ended trip and only
// then marks it completed, so a failed settlement is retried on the
// next scan instead of stranding escrowed money.
func (s *service) CompleteExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpiredConfirmed(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range expired {
		if len(b.Items) == 0 {
			log.Printf("booking %s: no items, skipping completion", b.ID)
			continue
		}

		product, err := s.catalog.Product(ctx, b.Items[0].ProductID)
		if err != nil {
			log.Printf("booking %s: resolving partner: %v", b.ID, err)
			continue
		}
		if product.PartnerID == uuid.Nil {
			log.Printf("booking %s: product %s has no partner, skipping", b.ID, product.ID)
			continue
		}

		if err := s.settlement.Distribute(ctx, b.ID, product.PartnerID,
			b.Pricing.TotalBeforeDiscount, b.Pricing.DiscountAmount); err != nil {
			log.Printf("booking %s: revenue distribution failed: %v", b.ID, err)
			continue
		}

		if _, err := s.store.UpdateStatus(ctx, b.ID, StatusConfirmed, StatusCompleted, nil); err != nil {
			log.Printf("booking %s: marking completed: %v", b.ID, err)
			continue
		}
		completed++
	}

	return completed, nil
}

func (s *service) lines(b *Booking) []Line {
	lines := make([]Line, len(b.Items))
	for i, item := range b.Items {
		lines[i] = Line{InventoryID: item.InventoryID, Quantity: item.Quantity}
	}
	return lines
}

func (s *service) reconcile(ctx context.Context, bookingID uuid.UUID, kind, detail string) {
	if err := s.store.InsertReconciliation(ctx, ReconciliationRecord{
		BookingID: bookingID,
		Kind:      kind,
		Detail:    detail,
	}); err != nil {
		log.Printf("booking %s: recording %s reconciliation: %v", bookingID, kind, err)
	}
}

func (s *service) notify(b *Booking, send func(context.Context, *Booking) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := send(ctx, b); err != nil {
			log.Printf("booking %s: notification failed: %v", b.ID, err)
		}
	}()
}

func page(bookings []Booking, total int, f ListFilter) *Page {
	p := f.Page
	if p < 1 {
		p = 1
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	return &Page{
		Bookings:    bookings,
		CurrentPage: p,
		TotalPages:  (total + limit - 1) / limit,
		Total:       total,
	}
}
