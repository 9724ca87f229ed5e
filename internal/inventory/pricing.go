// internal/inventory/pricing.go
package inventory

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// discountedPrice computes the sale price a pricing event yields. Percentage
// discounts are capped at 99%, fixed discounts clamp at zero, and the result
// is rounded to a whole amount.
func discountedPrice(base float64, discountType string, value float64) float64 {
	if base < 0 {
		base = 0
	}

	if discountType == DiscountPercentage {
		pct := math.Min(99, math.Max(0, value))
		return math.Max(0, math.Round(base*(100-pct)/100))
	}

	return math.Max(0, math.Round(base-value))
}

// inYearlyWindow reports whether now falls inside a yearly month/day range.
// Ranges may wrap around new year, e.g. Dec 20 through Jan 10.
func inYearlyWindow(now time.Time, startMonth, startDay, endMonth, endDay int) bool {
	year := now.Year()
	start := time.Date(year, time.Month(startMonth), startDay, 0, 0, 0, 0, now.Location())
	end := time.Date(year, time.Month(endMonth), endDay, 23, 59, 59, 0, now.Location())

	if !start.After(end) {
		return !now.Before(start) && !now.After(end)
	}

	endOfYear := time.Date(year, 12, 31, 23, 59, 59, 0, now.Location())
	startOfYear := time.Date(year, 1, 1, 0, 0, 0, 0, now.Location())
	return (!now.Before(start) && !now.After(endOfYear)) ||
		(!now.Before(startOfYear) && !now.After(end))
}

func eventAppliesTo(event PricingEvent, productID uuid.UUID) bool {
	if event.ApplyToAll {
		return true
	}
	for _, id := range event.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// winningEvent picks the applicable event with the highest priority,
// breaking ties by recency.
func winningEvent(events []PricingEvent, productID uuid.UUID) *PricingEvent {
	var applicable []PricingEvent
	for _, event := range events {
		if eventAppliesTo(event, productID) {
			applicable = append(applicable, event)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	sort.Slice(applicable, func(i, j int) bool {
		if applicable[i].Priority != applicable[j].Priority {
			return applicable[i].Priority > applicable[j].Priority
		}
		return applicable[i].CreatedAt.After(applicable[j].CreatedAt)
	})
	return &applicable[0]
}

func (s *service) CreateEvent(ctx context.Context, event PricingEvent) (*PricingEvent, error) {
	if event.Type != DiscountPercentage && event.Type != DiscountFixedAmount {
		return nil, fmt.Errorf("invalid discount type %q", event.Type)
	}
	if event.Value <= 0 {
		return nil, fmt.Errorf("discount value must be positive")
	}

	event.ID = uuid.New()
	event.IsActive = true
	if err := s.store.InsertEvent(ctx, &event); err != nil {
		return nil, fmt.Errorf("insert pricing event: %w", err)
	}
	return &event, nil
}

func (s *service) ToggleEvent(ctx context.Context, id uuid.UUID) (*PricingEvent, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event.IsActive = !event.IsActive
	if err := s.store.SetEventActive(ctx, id, event.IsActive); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) ListEvents(ctx context.Context) ([]PricingEvent, error) {
	return s.store.ListEvents(ctx, false)
}

// SyncEventPrices walks every active item and settles its price against the
// pricing events in effect today: apply the winning event's discount,
// snapshotting the base price once, or revert to the base price when no
// event applies anymore. It returns the number of items updated.
func (s *service) SyncEventPrices(ctx context.Context) (int, error) {
	events, err := s.store.ListEvents(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("list active events: %w", err)
	}

	now := time.Now()
	inWindow := events[:0:0]
	for _, event := range events {
		if inYearlyWindow(now, event.StartMonth, event.StartDay, event.EndMonth, event.EndDay) {
			inWindow = append(inWindow, event)
		}
	}

	items, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active items: %w", err)
	}

	updated := 0
	for _, item := range items {
		winning := winningEvent(inWindow, item.ProductID)

		if winning == nil {
			if item.OriginalPrice == nil && item.AppliedEvent == nil {
				continue
			}
			if err := s.store.RevertEventPrice(ctx, item.ID); err != nil {
				log.Printf("Failed to revert event price for item %s: %v", item.ID, err)
				continue
			}
			s.invalidateListing(ctx, item.ProductID)
			updated++
			continue
		}

		base := item.Price
		if item.OriginalPrice != nil {
			base = *item.OriginalPrice
		}
		newPrice := discountedPrice(base, winning.Type, winning.Value)

		if item.AppliedEvent != nil && item.AppliedEvent.EventID == winning.ID && item.Price == newPrice {
			continue
		}

		applied := AppliedEvent{
			EventID:   winning.ID,
			Name:      winning.Name,
			Type:      winning.Type,
			Value:     winning.Value,
			Priority:  winning.Priority,
			AppliedAt: now,
		}
		if err := s.store.ApplyEventPrice(ctx, item.ID, newPrice, applied); err != nil {
			log.Printf("Failed to apply event price for item %s: %v", item.ID, err)
			continue
		}
		s.invalidateListing(ctx, item.ProductID)
		updated++
	}

	return updated, nil
}

// RunPriceSync periodically reconciles item prices with the active pricing
// events, starting with an immediate pass.
func RunPriceSync(ctx context.Context, svc Service, interval time.Duration) {
	sync := func() {
		updated, err := svc.SyncEventPrices(ctx)
		if err != nil {
			log.Printf("Event price sync failed: %v", err)
			return
		}
		if updated > 0 {
			log.Printf("Event price sync updated %d items", updated)
		}
	}

	sync()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Event price sync stopped.")
			return
		case <-ticker.C:
			sync()
		}
	}
}
