package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m3rciful/ipswbot/core/logger"

	"log/slog"
)

// FileStore keeps the subscription map in a single JSON file. A missing or
// unreadable file loads as an empty map so a fresh deployment and a corrupt
// state file both start clean.
type FileStore struct {
	path string
}

// NewFileStore builds a store over the given file path. The parent directory
// is created on the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// LoadAll reads the file. Missing file and malformed JSON both yield an
// empty map; the latter is logged as a warning since state is being dropped.
func (s *FileStore) LoadAll(ctx context.Context) (map[string]Subscription, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.SVCSubs.Warn("state file unreadable",
				slog.String("event", "store.load"),
				slog.String("path", s.path),
				slog.String("err", err.Error()),
			)
		}
		return map[string]Subscription{}, nil
	}

	subs := map[string]Subscription{}
	if err := json.Unmarshal(raw, &subs); err != nil {
		logger.SVCSubs.Warn("state file corrupt, starting empty",
			slog.String("event", "store.load"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return map[string]Subscription{}, nil
	}
	return subs, nil
}

// SaveAll replaces the file atomically: write a sibling temp file, then
// rename it over the target so no reader ever observes a partial write.
func (s *FileStore) SaveAll(ctx context.Context, subs map[string]Subscription) error {
	if subs == nil {
		subs = map[string]Subscription{}
	}
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("subscription: encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("subscription: create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("subscription: create temp state: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("subscription: write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("subscription: close temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("subscription: replace state: %w", err)
	}
	return nil
}
