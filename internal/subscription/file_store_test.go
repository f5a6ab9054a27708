package subscription

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.json")
	store := NewFileStore(path)
	ctx := context.Background()

	want := map[string]Subscription{
		"100": {Device: "iPhone 15", LastNotified: "18.0"},
		"200": {Device: "iPhone 12 Mini", LastNotified: ""},
	}
	if err := store.SaveAll(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for id, sub := range want {
		if got[id] != sub {
			t.Fatalf("subs[%s] = %+v, want %+v", id, got[id], sub)
		}
	}

	// Saving a loaded snapshot unchanged must round-trip to the same state.
	if err := store.SaveAll(ctx, got); err != nil {
		t.Fatalf("resave: %v", err)
	}
	again, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(again) != len(want) || again["100"] != want["100"] {
		t.Fatalf("round trip changed state: %+v", again)
	}
}

func TestFileStoreMissingFileLoadsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	got, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %+v", got)
	}
}

func TestFileStoreCorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileStore(path)
	got, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %+v", got)
	}
}

func TestFileStoreSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "subs.json")
	store := NewFileStore(path)
	if err := store.SaveAll(context.Background(), map[string]Subscription{
		"1": {Device: "iPhone 14"},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file missing: %v", err)
	}
}
