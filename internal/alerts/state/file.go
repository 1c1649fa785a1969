package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileStore keeps alert state in a single human-inspectable JSON file,
// keyed by the deterministic key serialization. State is held in memory
// between Flush calls; Flush writes atomically via tmp+rename so a crash
// mid-write never corrupts the previous snapshot.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]AlertState
	dirty   bool
}

// NewFileStore loads existing state from path. A missing or corrupt
// file degrades to an empty store: every alert key starts over in
// no-prior-alert rather than blocking startup.
func NewFileStore(path string) *FileStore {
	fs := &FileStore{
		path:    path,
		entries: make(map[string]AlertState),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("alert state unreadable, starting empty")
		}
		return fs
	}

	if err := json.Unmarshal(data, &fs.entries); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("alert state corrupt, starting empty")
		fs.entries = make(map[string]AlertState)
	}
	return fs
}

func (fs *FileStore) Get(_ context.Context, key Key) (AlertState, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	st, ok := fs.entries[key.String()]
	return st, ok, nil
}

func (fs *FileStore) Put(_ context.Context, key Key, st AlertState) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.entries[key.String()] = st
	fs.dirty = true
	return nil
}

// Flush writes the full snapshot to disk atomically. Unchanged state is
// not rewritten.
func (fs *FileStore) Flush(_ context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.dirty {
		return nil
	}

	data, err := json.MarshalIndent(fs.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal alert state: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write alert state: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace alert state file: %w", err)
	}

	fs.dirty = false
	return nil
}

// Snapshot returns a copy of all entries, for state inspection tooling.
func (fs *FileStore) Snapshot() map[string]AlertState {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	out := make(map[string]AlertState, len(fs.entries))
	for k, v := range fs.entries {
		out[k] = v
	}
	return out
}
