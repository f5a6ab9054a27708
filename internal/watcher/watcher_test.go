package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/ipswbot/internal/catalog"
	"github.com/m3rciful/ipswbot/internal/ipsw"
	"github.com/m3rciful/ipswbot/internal/subscription"
)

type fakeSource struct {
	mu      sync.Mutex
	latest  map[string]ipsw.Firmware
	failFor map[string]error
	calls   int
}

func (f *fakeSource) LatestSigned(ctx context.Context, identifier string) (ipsw.Firmware, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failFor[identifier]; ok {
		return ipsw.Firmware{}, false, err
	}
	fw, ok := f.latest[identifier]
	return fw, ok, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fails map[string]error
}

func (f *fakeNotifier) NotifyNewVersion(ctx context.Context, userID, device string, fw ipsw.Firmware) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fails[userID]; ok {
		return err
	}
	f.sent = append(f.sent, userID+":"+fw.Version)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Device{
		{Name: "iPhone 15", Identifier: "iPhone15,4"},
		{Name: "iPhone 12", Identifier: "iPhone13,2"},
		{Name: "iPhone 11", Identifier: "iPhone12,1"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestCycleNotifiesOnChangedVersionOnly(t *testing.T) {
	store := subscription.NewMemoryStore(map[string]subscription.Subscription{
		"42": {Device: "iPhone 15", LastNotified: "18.0"},
	})
	source := &fakeSource{latest: map[string]ipsw.Firmware{
		"iPhone15,4": {Version: "18.0.1", Signed: true, ReleaseDate: "2025-10-01", Description: "fixes"},
	}}
	notifier := &fakeNotifier{}
	w := &Watcher{
		Subs:     subscription.NewService(store),
		Catalog:  testCatalog(t),
		Source:   source,
		Notifier: notifier,
	}

	w.runCycle(context.Background())

	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("sent = %d, want 1", got)
	}
	if notifier.sent[0] != "42:18.0.1" {
		t.Fatalf("sent[0] = %q", notifier.sent[0])
	}
	subs, _ := store.LoadAll(context.Background())
	if subs["42"].LastNotified != "18.0.1" {
		t.Fatalf("last_notified = %q", subs["42"].LastNotified)
	}
}

func TestCycleIdempotentWhenRemoteUnchanged(t *testing.T) {
	store := subscription.NewMemoryStore(map[string]subscription.Subscription{
		"42": {Device: "iPhone 15", LastNotified: ""},
	})
	source := &fakeSource{latest: map[string]ipsw.Firmware{
		"iPhone15,4": {Version: "18.0.1", Signed: true},
	}}
	notifier := &fakeNotifier{}
	w := &Watcher{
		Subs:     subscription.NewService(store),
		Catalog:  testCatalog(t),
		Source:   source,
		Notifier: notifier,
	}

	w.runCycle(context.Background())
	savesAfterFirst := store.SaveCount()
	sentAfterFirst := notifier.sentCount()

	w.runCycle(context.Background())

	if store.SaveCount() != savesAfterFirst {
		t.Fatalf("second cycle wrote state: saves %d -> %d", savesAfterFirst, store.SaveCount())
	}
	if notifier.sentCount() != sentAfterFirst {
		t.Fatalf("second cycle sent again: %d -> %d", sentAfterFirst, notifier.sentCount())
	}
}

func TestCycleIsolatesPerUserFailures(t *testing.T) {
	store := subscription.NewMemoryStore(map[string]subscription.Subscription{
		"1": {Device: "iPhone 15"}, // fetch fails
		"2": {Device: "Unknown X"}, // not in catalog
		"3": {Device: "iPhone 12"}, // healthy
	})
	source := &fakeSource{
		latest: map[string]ipsw.Firmware{
			"iPhone13,2": {Version: "18.0", Signed: true},
		},
		failFor: map[string]error{
			"iPhone15,4": errors.New("boom"),
		},
	}
	notifier := &fakeNotifier{}
	w := &Watcher{
		Subs:     subscription.NewService(store),
		Catalog:  testCatalog(t),
		Source:   source,
		Notifier: notifier,
	}

	w.runCycle(context.Background())

	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("sent = %d, want 1", got)
	}
	if notifier.sent[0] != "3:18.0" {
		t.Fatalf("sent[0] = %q", notifier.sent[0])
	}
	subs, _ := store.LoadAll(context.Background())
	if subs["1"].LastNotified != "" {
		t.Fatal("failed fetch must leave state untouched")
	}
}

func TestVersionRecordedEvenWhenDeliveryFails(t *testing.T) {
	store := subscription.NewMemoryStore(map[string]subscription.Subscription{
		"9": {Device: "iPhone 11"},
	})
	source := &fakeSource{latest: map[string]ipsw.Firmware{
		"iPhone12,1": {Version: "18.0", Signed: true},
	}}
	notifier := &fakeNotifier{fails: map[string]error{"9": errors.New("chat gone")}}
	w := &Watcher{
		Subs:     subscription.NewService(store),
		Catalog:  testCatalog(t),
		Source:   source,
		Notifier: notifier,
	}

	w.runCycle(context.Background())

	subs, _ := store.LoadAll(context.Background())
	if subs["9"].LastNotified != "18.0" {
		t.Fatalf("last_notified = %q, want recorded despite delivery failure", subs["9"].LastNotified)
	}

	// Same remote data next cycle: no duplicate attempt.
	w.runCycle(context.Background())
	if notifier.sentCount() != 0 {
		t.Fatalf("sent = %d, want 0", notifier.sentCount())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := subscription.NewMemoryStore(nil)
	w := &Watcher{
		Subs:     subscription.NewService(store),
		Catalog:  testCatalog(t),
		Source:   &fakeSource{},
		Notifier: &fakeNotifier{},
		Interval: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
