package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/logiscore/authcore/internal/auth/store"
)

// HousekeepingService periodically purges verification codes that can no
// longer be used and attempt records older than the limiter window.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// CodeRetention keeps stale codes around this long after they expire or
	// are consumed, so late submissions still report already used.
	CodeRetention time.Duration

	// AttemptRetention should be at least the limiter window.
	AttemptRetention time.Duration

	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:            store,
		Logger:           logger,
		Interval:         interval,
		CodeRetention:    time.Hour,
		AttemptRetention: 24 * time.Hour,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one purge pass. Each deletion is independent; a failure in
// one does not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	codes, err := s.Store.VerificationCodes().DeleteStaleVerificationCodes(ctx, now.Add(-s.CodeRetention))
	if err != nil {
		s.Logger.Error("failed to delete stale verification codes", "error", err)
	}

	attempts, err := s.Store.VerificationAttempts().DeleteVerificationAttemptsBefore(ctx, now.Add(-s.AttemptRetention))
	if err != nil {
		s.Logger.Error("failed to delete old verification attempts", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"verification_codes_deleted", codes,
		"verification_attempts_deleted", attempts,
	)
}
