// internal/booking/scanner.go
package booking

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scanner periodically completes ended trips. One scan runs at a time;
// if a run is still going when the ticker fires, the new run is
// skipped rather than queued.
type Scanner struct {
	service  Service
	interval time.Duration
	mu       sync.Mutex
}

func NewScanner(service Service, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scanner{service: service, interval: interval}
}

// Run scans immediately, then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *Scanner) scan(ctx context.Context) {
	if !s.mu.TryLock() {
		log.Println("completion scan still running, skipping this tick")
		return
	}
	defer s.mu.Unlock()

	completed, err := s.service.CompleteExpired(ctx)
	if err != nil {
		log.Printf("completion scan failed: %v", err)
		return
	}
	if completed > 0 {
		log.Printf("completion scan settled %d bookings", completed)
	}
}
