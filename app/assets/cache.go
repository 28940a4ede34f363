package assets

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Cache is the persisted public_id -> secure_url mapping. It is an
// advisory, eventually-consistent cache: the CDN is always the source
// of truth for asset existence. It is read once at the start of a run
// and saved once at the end.
type Cache struct {
	path    string
	entries map[string]string
}

func NewCache(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]string),
	}
}

// Load reads the cache file. A missing or corrupt file is not an
// error: the cache starts empty and the caller may rebuild it from the
// CDN asset listing. The boolean reports whether a usable file was
// found.
func (c *Cache) Load() bool {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read asset cache", "path", c.path, "error", err)
		}
		return false
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("Asset cache is corrupt, starting empty", "path", c.path, "error", err)
		return false
	}

	c.entries = entries
	slog.Debug("Asset cache loaded", "path", c.path, "entries", len(entries))
	return true
}

// Save writes the whole cache file. Called once at the end of a run.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode asset cache: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write asset cache: %w", err)
	}

	return nil
}

func (c *Cache) Get(publicID string) (string, bool) {
	url, ok := c.entries[publicID]
	return url, ok
}

func (c *Cache) Set(publicID, url string) {
	c.entries[publicID] = url
}

// Replace swaps in a full mapping, used when rebuilding wholesale from
// the CDN asset-listing API.
func (c *Cache) Replace(entries map[string]string) {
	if entries == nil {
		entries = make(map[string]string)
	}
	c.entries = entries
}

func (c *Cache) Len() int {
	return len(c.entries)
}
