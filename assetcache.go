package main

import (
	"sync"
)

// AssetFetcher loads an asset from its origin (embedded files locally, the
// server over HTTP in the client).
type AssetFetcher func(path string) ([]byte, error)

// AssetCache is a versioned read-through cache over an AssetFetcher. Shell
// assets are served cache-first so the app opens offline; everything else is
// network-first with the cached copy as fallback. Bumping the version drops
// every cached entry.
type AssetCache struct {
	mu      sync.RWMutex
	version string
	entries map[string][]byte
	shell   map[string]bool
	fetch   AssetFetcher
}

func NewAssetCache(version string, shellPaths []string, fetch AssetFetcher) *AssetCache {
	shell := make(map[string]bool, len(shellPaths))
	for _, path := range shellPaths {
		shell[path] = true
	}
	return &AssetCache{
		version: version,
		entries: map[string][]byte{},
		shell:   shell,
		fetch:   fetch,
	}
}

func (c *AssetCache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// SetVersion clears the cache when the version actually changes.
func (c *AssetCache) SetVersion(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version == c.version {
		return
	}
	c.version = version
	c.entries = map[string][]byte{}
}

func (c *AssetCache) cached(path string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[path]
	return data, ok
}

func (c *AssetCache) store(path string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = data
}

func (c *AssetCache) Get(path string) ([]byte, error) {
	if c.shell[path] {
		if data, ok := c.cached(path); ok {
			return data, nil
		}
		data, err := c.fetch(path)
		if err != nil {
			return nil, err
		}
		c.store(path, data)
		return data, nil
	}

	data, err := c.fetch(path)
	if err != nil {
		if cached, ok := c.cached(path); ok {
			return cached, nil
		}
		return nil, err
	}
	c.store(path, data)
	return data, nil
}
