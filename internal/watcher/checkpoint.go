package watcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

// Entry records one imported file.
type Entry struct {
	Size       int64     `json:"size"`
	LogUUID    string    `json:"log_uuid"`
	ImportedAt time.Time `json:"imported_at"`
}

// checkpointData is the on-disk JSON structure.
type checkpointData struct {
	Files map[string]Entry `json:"files"`
}

// Checkpoint persists which files have been imported so a restarted
// watcher does not import them again.
type Checkpoint struct {
	mu   sync.RWMutex
	path string
	data checkpointData
}

// LoadCheckpoint reads the checkpoint at path. A missing file yields an
// empty checkpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{
		path: path,
		data: checkpointData{Files: make(map[string]Entry)},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	if c.data.Files == nil {
		c.data.Files = make(map[string]Entry)
	}

	return c, nil
}

// Get returns the entry for a file path.
func (c *Checkpoint) Get(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data.Files[path]
	return e, ok
}

// Record marks a file path as imported.
func (c *Checkpoint) Record(path string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Files[path] = e
}

// Len returns the number of recorded files.
func (c *Checkpoint) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data.Files)
}

// Save writes the checkpoint to disk atomically.
func (c *Checkpoint) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}
