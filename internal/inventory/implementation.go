// internal/inventory/implementation.go
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const listingCacheTTL = 30 * time.Second

// service implements the Service interface.
type service struct {
	store     Store
	cache     *redis.Client
	conflicts metric.Int64Counter
}

// NewService creates a new availability ledger service. The redis client is
// optional; without it listings are always read from the database.
func NewService(store Store, cache *redis.Client) Service {
	meter := otel.Meter("gotripviet/inventory")
	conflicts, err := meter.Int64Counter("inventory.reserve.conflicts")
	if err != nil {
		log.Printf("Failed to create conflict counter: %v", err)
	}

	return &service{
		store:     store,
		cache:     cache,
		conflicts: conflicts,
	}
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*Item, error) {
	if input.TotalSlots <= 0 {
		return nil, fmt.Errorf("total_slots must be positive")
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}

	item := &Item{
		ID:         uuid.New(),
		ProductID:  input.ProductID,
		Date:       input.Date,
		TotalSlots: input.TotalSlots,
		Price:      input.Price,
		IsActive:   true,
	}
	if err := s.store.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}

	s.invalidateListing(ctx, item.ProductID)
	return item, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]Item, error) {
	key := listingKey(productID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var items []Item
			if err := json.Unmarshal(cached, &items); err == nil {
				return items, nil
			}
		}
	}

	items, err := s.store.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, payload, listingCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache inventory listing for product %s: %v", productID, err)
			}
		}
	}
	return items, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*Item, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Date != nil {
		item.Date = *input.Date
	}
	if input.TotalSlots != nil {
		if *input.TotalSlots < item.BookedSlots {
			return nil, fmt.Errorf("total_slots %d below booked_slots %d", *input.TotalSlots, item.BookedSlots)
		}
		item.TotalSlots = *input.TotalSlots
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	if err := s.store.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}

	s.invalidateListing(ctx, item.ProductID)
	return item, nil
}

func (s *service) DeactivateItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidateListing(ctx, item.ProductID)
	return nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.store.GetByID(ctx, id)
}

// Check is a read-only feasibility pass. It does not reserve anything; the
// window between Check and Reserve is closed by the conditional update in
// ReserveOne.
func (s *service) Check(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("no items to check")
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("quantity for item %s must be positive", line.InventoryID)
		}

		item, err := s.store.GetByID(ctx, line.InventoryID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return fmt.Errorf("item %s: %w", line.InventoryID, ErrItemInactive)
		}
		if item.Available() < line.Quantity {
			return &InsufficientStockError{
				InventoryID: line.InventoryID,
				Available:   item.Available(),
				Requested:   line.Quantity,
			}
		}
	}
	return nil
}

// Reserve is atomic across the whole line list: any failing item rolls back
// the increments already applied, so a partial reservation is never left
// behind.
func (s *service) Reserve(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("no items to reserve")
	}

	done := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			s.rollback(ctx, done)
			return fmt.Errorf("quantity for item %s must be positive", line.InventoryID)
		}

		if err := s.store.ReserveOne(ctx, line.InventoryID, line.Quantity); err != nil {
			s.rollback(ctx, done)

			var insufficient *InsufficientStockError
			if errors.As(err, &insufficient) && s.conflicts != nil {
				s.conflicts.Add(ctx, 1, metric.WithAttributes(
					attribute.String("inventory.id", line.InventoryID.String()),
				))
			}
			return err
		}
		done = append(done, line)
		s.invalidateListingForItem(ctx, line.InventoryID)
	}
	return nil
}

func (s *service) rollback(ctx context.Context, done []Line) {
	for i := len(done) - 1; i >= 0; i-- {
		line := done[i]
		if err := s.store.ReleaseOne(ctx, line.InventoryID, line.Quantity); err != nil {
			log.Printf("Failed to roll back reservation for item %s: %v", line.InventoryID, err)
		}
	}
}

// Release tolerates items that no longer exist: it may run against stale
// references during error recovery, and a missing row must not block the
// rest of the list.
func (s *service) Release(ctx context.Context, lines []Line) error {
	var failed error
	for _, line := range lines {
		err := s.store.ReleaseOne(ctx, line.InventoryID, line.Quantity)
		if errors.Is(err, ErrItemNotFound) {
			log.Printf("Inventory item %s not found during release, skipping", line.InventoryID)
			continue
		}
		if err != nil {
			failed = errors.Join(failed, fmt.Errorf("release item %s: %w", line.InventoryID, err))
			continue
		}
		s.invalidateListingForItem(ctx, line.InventoryID)
	}
	return failed
}

func (s *service) invalidateListingForItem(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return
	}
	s.invalidateListing(ctx, item.ProductID)
}

func (s *service) invalidateListing(ctx context.Context, productID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listingKey(productID)).Err(); err != nil {
		log.Printf("Failed to invalidate inventory cache for product %s: %v", productID, err)
	}
}

func listingKey(productID uuid.UUID) string {
	return fmt.Sprintf("inventory:product:%s", productID)
}
