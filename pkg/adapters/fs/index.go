package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// indexEntry captures the identity fields of one contact file. The entry
// backs both offline reconciliation (via mtime) and fast name/UID lookups.
type indexEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	UID          string    `json:"uid,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// indexState is the persistent index payload.
type indexState struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"` // Key is relative path (e.g. "family/jane-doe.md")
	dirty   bool
	mu      sync.RWMutex
}

// index manages the loading, updating, and saving of the identity index.
type index struct {
	Path  string // Path to {systemDir}/index.json
	state *indexState
}

// newIndex initializes an index under the vault's system directory.
func newIndex(vaultPath, systemDir string) *index {
	return &index{
		Path: filepath.Join(vaultPath, systemDir, "index.json"),
		state: &indexState{
			Version: 1,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the index from disk. A missing or corrupted file starts an
// empty index without error, letting the vault self-heal on the next walk.
func (c *index) Load() error {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	if err := json.Unmarshal(data, c.state); err != nil {
		c.state.Entries = make(map[string]*indexEntry)
		return nil
	}
	if c.state.Entries == nil {
		c.state.Entries = make(map[string]*indexEntry)
	}

	c.state.dirty = false
	return nil
}

// Save persists the index to disk when dirty.
func (c *index) Save() error {
	c.state.mu.RLock()
	if !c.state.dirty {
		c.state.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.state, "", "  ")
	c.state.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.state.mu.Lock()
	c.state.dirty = false
	c.state.mu.Unlock()

	return nil
}

// Get retrieves an entry if it exists and its mtime matches.
func (c *index) Get(relPath string, currentMtime time.Time) (*indexEntry, bool) {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()

	entry, ok := c.state.Entries[relPath]
	if !ok {
		return nil, false
	}
	if !entry.LastModified.Equal(currentMtime) {
		return nil, false
	}
	return entry, true
}

// Lookup retrieves an entry regardless of freshness.
func (c *index) Lookup(relPath string) (*indexEntry, bool) {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	entry, ok := c.state.Entries[relPath]
	return entry, ok
}

// Set updates an entry.
func (c *index) Set(relPath string, entry *indexEntry) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.Entries[relPath] = entry
	c.state.dirty = true
}

// Delete removes an entry.
func (c *index) Delete(relPath string) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	if _, ok := c.state.Entries[relPath]; ok {
		delete(c.state.Entries, relPath)
		c.state.dirty = true
	}
}

// Prune removes entries that are not in the keep set and returns the
// removed entries (deleted files, for reconciliation).
func (c *index) Prune(keep map[string]bool) []*indexEntry {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	var removed []*indexEntry
	for path, entry := range c.state.Entries {
		if !keep[path] {
			removed = append(removed, entry)
			delete(c.state.Entries, path)
			c.state.dirty = true
		}
	}
	return removed
}

// Len returns the number of indexed files.
func (c *index) Len() int {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return len(c.state.Entries)
}
