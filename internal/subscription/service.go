package subscription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/ipswbot/core/logger"

	"log/slog"
)

// Service is the single writer over a Store. Every operation runs a full
// load-modify-save under one mutex, so handler and watcher goroutines never
// interleave partial updates and every read observes the latest write.
type Service struct {
	mu    sync.Mutex
	store Store
}

// NewService wraps a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Select records that the user watches the given device, resetting the
// last-notified marker. An existing subscription is overwritten.
func (s *Service) Select(ctx context.Context, userID, device string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	subs, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("select device: %w", err)
	}
	subs[userID] = Subscription{Device: device, LastNotified: ""}
	if err := s.store.SaveAll(ctx, subs); err != nil {
		return fmt.Errorf("select device: %w", err)
	}

	logger.SVCSubs.Info("device selected",
		slog.String("event", "select"),
		slog.String("user_id", userID),
		slog.String("device", device),
		slog.Int("users", len(subs)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// Get returns the user's subscription, if any.
func (s *Service) Get(ctx context.Context, userID string) (Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.store.LoadAll(ctx)
	if err != nil {
		return Subscription{}, false, fmt.Errorf("get subscription: %w", err)
	}
	sub, ok := subs[userID]
	return sub, ok, nil
}

// Snapshot returns a copy of the full subscription map.
func (s *Service) Snapshot(ctx context.Context) (map[string]Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return subs, nil
}

// Count returns the number of subscriptions.
func (s *Service) Count(ctx context.Context) (int, error) {
	subs, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(subs), nil
}

// MarkNotified records that the user was told about version. The current
// state is re-read under the lock, so a concurrent Select or an earlier
// MarkNotified for the same version is detected here rather than trusted
// from the caller's stale snapshot. Returns true only when the version was
// newly recorded; equality on the version token is the sole dedup signal.
func (s *Service) MarkNotified(ctx context.Context, userID, version string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.store.LoadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	sub, ok := subs[userID]
	if !ok {
		// Unsubscribed between snapshot and now.
		return false, nil
	}
	if sub.LastNotified == version {
		return false, nil
	}
	sub.LastNotified = version
	subs[userID] = sub
	if err := s.store.SaveAll(ctx, subs); err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}

	logger.SVCSubs.Info("notification recorded",
		slog.String("event", "mark"),
		slog.String("user_id", userID),
		slog.String("device", sub.Device),
		slog.String("version", version),
	)
	return true, nil
}
