package subscription

import (
	"context"
	"testing"
)

func TestSelectOverwritesAndResetsMarker(t *testing.T) {
	svc := NewService(NewMemoryStore(map[string]Subscription{
		"42": {Device: "iPhone 11", LastNotified: "17.6.1"},
	}))
	ctx := context.Background()

	if err := svc.Select(ctx, "42", "iPhone 15"); err != nil {
		t.Fatalf("select: %v", err)
	}
	sub, ok, err := svc.Get(ctx, "42")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if sub.Device != "iPhone 15" || sub.LastNotified != "" {
		t.Fatalf("sub = %+v", sub)
	}
}

func TestMarkNotifiedDedupByEquality(t *testing.T) {
	store := NewMemoryStore(map[string]Subscription{
		"42": {Device: "iPhone 15", LastNotified: "18.0"},
	})
	svc := NewService(store)
	ctx := context.Background()

	// Same version again: no write, not newly recorded.
	changed, err := svc.MarkNotified(ctx, "42", "18.0")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if changed {
		t.Fatal("expected no change for equal version")
	}
	if store.SaveCount() != 0 {
		t.Fatalf("saves = %d, want 0", store.SaveCount())
	}

	// New version: recorded and persisted.
	changed, err = svc.MarkNotified(ctx, "42", "18.0.1")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !changed {
		t.Fatal("expected new version to be recorded")
	}
	if store.SaveCount() != 1 {
		t.Fatalf("saves = %d, want 1", store.SaveCount())
	}

	// A version that is "older" by any ordering is still a difference.
	changed, err = svc.MarkNotified(ctx, "42", "18.0")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !changed {
		t.Fatal("dedup must compare equality, not ordering")
	}
}

func TestMarkNotifiedUnknownUser(t *testing.T) {
	store := NewMemoryStore(nil)
	svc := NewService(store)

	changed, err := svc.MarkNotified(context.Background(), "7", "18.0")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if changed {
		t.Fatal("unknown user must not be recorded")
	}
	if store.SaveCount() != 0 {
		t.Fatalf("saves = %d, want 0", store.SaveCount())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	svc := NewService(NewMemoryStore(map[string]Subscription{
		"1": {Device: "iPhone 13"},
	}))
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap["1"] = Subscription{Device: "tampered"}

	sub, _, err := svc.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub.Device != "iPhone 13" {
		t.Fatalf("snapshot mutation leaked: %+v", sub)
	}
}
