// Package watcher runs the periodic signed-firmware check and triggers
// notifications when a watched device gets a new signed version.
package watcher

import (
	"context"
	"time"

	"github.com/m3rciful/ipswbot/core/logger"
	"github.com/m3rciful/ipswbot/internal/catalog"
	"github.com/m3rciful/ipswbot/internal/ipsw"
	"github.com/m3rciful/ipswbot/internal/subscription"

	"log/slog"
)

// Source yields the newest signed firmware for a device identifier.
// Implemented by ipsw.Client.
type Source interface {
	LatestSigned(ctx context.Context, identifier string) (ipsw.Firmware, bool, error)
}

// Notifier delivers a new-version notification to one user. Errors are
// logged by the watcher but never abort a cycle.
type Notifier interface {
	NotifyNewVersion(ctx context.Context, userID, device string, fw ipsw.Firmware) error
}

// Watcher polls the source for every subscription on a fixed interval.
type Watcher struct {
	Subs     *subscription.Service
	Catalog  *catalog.Catalog
	Source   Source
	Notifier Notifier
	Interval time.Duration
}

// Run cycles until ctx is cancelled. Each sleep starts after the previous
// cycle completes, so a slow remote stretches the period instead of piling
// up concurrent cycles.
func (w *Watcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	logger.WATCH.Info("watcher started",
		slog.String("event", "start"),
		slog.Duration("interval", interval),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()
	// Consume the immediate first tick so the loop body owns the cadence.
	<-timer.C

	for {
		w.runCycle(ctx)

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			logger.WATCH.Info("watcher stopped", slog.String("event", "stop"))
			return
		case <-timer.C:
		}
	}
}

func (w *Watcher) runCycle(ctx context.Context) {
	start := time.Now()

	subs, err := w.Subs.Snapshot(ctx)
	if err != nil {
		logger.WATCH.Error("snapshot failed",
			slog.String("event", "cycle.error"),
			slog.String("err", err.Error()),
		)
		return
	}

	var checked, notified, skipped int
	for userID, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if sub.Device == "" {
			skipped++
			continue
		}
		checked++
		if w.checkUser(ctx, userID, sub) {
			notified++
		}
	}

	logger.WATCH.Info("cycle done",
		slog.String("event", "cycle.done"),
		slog.Int("users", len(subs)),
		slog.Int("checked", checked),
		slog.Int("notified", notified),
		slog.Int("skipped", skipped),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

// checkUser handles one subscription. Every failure path is isolated: it
// skips the user and leaves their state untouched for the next cycle.
func (w *Watcher) checkUser(ctx context.Context, userID string, sub subscription.Subscription) bool {
	identifier, err := w.Catalog.Resolve(sub.Device)
	if err != nil {
		logger.WATCH.Warn("device not in catalog",
			slog.String("event", "check.skip"),
			slog.String("user_id", userID),
			slog.String("device", sub.Device),
		)
		return false
	}

	latest, ok, err := w.Source.LatestSigned(ctx, identifier)
	if err != nil {
		logger.WATCH.Warn("fetch failed",
			slog.String("event", "check.skip"),
			slog.String("user_id", userID),
			slog.String("device", sub.Device),
			slog.String("err", err.Error()),
		)
		return false
	}
	if !ok {
		return false
	}
	if latest.Version == sub.LastNotified {
		return false
	}

	// Record before sending, so a delivery failure is not retried into a
	// duplicate on the next cycle.
	recorded, err := w.Subs.MarkNotified(ctx, userID, latest.Version)
	if err != nil {
		logger.WATCH.Error("mark failed",
			slog.String("event", "check.skip"),
			slog.String("user_id", userID),
			slog.String("device", sub.Device),
			slog.String("latest", latest.Version),
			slog.String("err", err.Error()),
		)
		return false
	}
	if !recorded {
		// Another writer already handled this version.
		return false
	}

	if err := w.Notifier.NotifyNewVersion(ctx, userID, sub.Device, latest); err != nil {
		logger.WATCH.Warn("notify failed",
			slog.String("event", "notify.error"),
			slog.String("user_id", userID),
			slog.String("device", sub.Device),
			slog.String("latest", latest.Version),
			slog.String("err", err.Error()),
		)
		return false
	}

	logger.WATCH.Info("user notified",
		slog.String("event", "notify.done"),
		slog.String("user_id", userID),
		slog.String("device", sub.Device),
		slog.String("latest", latest.Version),
	)
	return true
}
