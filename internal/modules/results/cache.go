package results

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// HistoryCache memoizes parsed performance history files on disk, so that
// regenerating a report over a large results tree does not re-decode
// thousands of JSON files. Entries are keyed by path and invalidated when the
// file size or modification time changes.
type HistoryCache struct {
	path    string
	entries map[string]cacheEntry
	dirty   bool
	log     zerolog.Logger
}

type cacheEntry struct {
	Size    int64
	ModTime int64
	History *PerformanceHistory
}

// NewHistoryCache creates a cache persisted at the given path.
func NewHistoryCache(path string, log zerolog.Logger) *HistoryCache {
	return &HistoryCache{
		path:    path,
		entries: make(map[string]cacheEntry),
		log:     log.With().Str("service", "history_cache").Logger(),
	}
}

// Load reads the cache file. A missing file leaves the cache empty; a corrupt
// one is discarded and rebuilt on Save.
func (c *HistoryCache) Load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history cache: %w", err)
	}
	if err := msgpack.Unmarshal(data, &c.entries); err != nil {
		c.log.Warn().Err(err).Msg("Discarding unreadable history cache")
		c.entries = make(map[string]cacheEntry)
		c.dirty = true
	}
	return nil
}

// History returns the parsed performance history stored at path, reading the
// file only when the cache has no fresh entry for it.
func (c *HistoryCache) History(path string) (*PerformanceHistory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat history file: %w", err)
	}
	if entry, ok := c.entries[path]; ok &&
		entry.Size == info.Size() && entry.ModTime == info.ModTime().UnixNano() {
		return entry.History, nil
	}

	history, err := FromFile(path)
	if err != nil {
		return nil, err
	}
	c.entries[path] = cacheEntry{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		History: history,
	}
	c.dirty = true
	return history, nil
}

// Save writes the cache back to disk when it changed since Load.
func (c *HistoryCache) Save() error {
	if !c.dirty {
		return nil
	}
	data, err := msgpack.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to encode history cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history cache: %w", err)
	}
	c.dirty = false
	return nil
}
