package service

import (
	"context"
	"time"

	"github.com/dentiq/dentiq-backend/pkg/logger"
)

// ExpiryScheduler periodically publishes expiring batch notifications.
// Runs once at startup and then on every tick.
type ExpiryScheduler struct {
	service  *InventoryService
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewExpiryScheduler creates a new expiry scheduler
func NewExpiryScheduler(svc *InventoryService, interval time.Duration, log *logger.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		service:  svc,
		interval: interval,
		logger:   log,
	}
}

// Start starts the scheduler in a background goroutine
func (s *ExpiryScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("expiry scheduler started")

		s.runCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("expiry scheduler stopped")
				return
			case <-ticker.C:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *ExpiryScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *ExpiryScheduler) runCycle(ctx context.Context) {
	start := time.Now()

	if err := s.service.NotifyExpiringBatches(ctx); err != nil {
		s.logger.Error().Err(err).Msg("expiry notification cycle failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("expiry notification cycle completed")
}
