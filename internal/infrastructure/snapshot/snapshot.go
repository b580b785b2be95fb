// Package snapshot persists the whole store as one JSON document. It is only
// touched at process start and stop; nothing snapshots while the server runs.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/taskhub/core/internal/adapters/memory"
)

// Load reads a snapshot file and rebuilds the store. A missing file is not an
// error: it yields an empty store, matching first-run behavior.
func Load(path string) (*memory.Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return memory.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var dump memory.Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}

	store, err := memory.FromDump(&dump)
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot %s: %w", path, err)
	}
	return store, nil
}

// Save writes the store to the snapshot file. The document lands in a
// uniquely named temp file first and is renamed into place, so a crash
// mid-write never clobbers the previous snapshot.
func Save(path string, store *memory.Store) error {
	data, err := json.MarshalIndent(store.Dump(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot %s: %w", path, err)
	}
	return nil
}
