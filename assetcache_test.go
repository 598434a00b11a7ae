package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	data  map[string][]byte
	fail  bool
}

func (f *countingFetcher) fetch(path string) ([]byte, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("origin down")
	}
	data, ok := f.data[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestAssetCacheShellIsCacheFirst(t *testing.T) {
	origin := &countingFetcher{data: map[string][]byte{"index.html": []byte("<html>v1</html>")}}
	cache := NewAssetCache("v1", []string{"index.html"}, origin.fetch)

	data, err := cache.Get("index.html")
	require.NoError(t, err)
	require.Equal(t, "<html>v1</html>", string(data))
	require.Equal(t, 1, origin.calls)

	origin.data["index.html"] = []byte("<html>changed</html>")
	data, err = cache.Get("index.html")
	require.NoError(t, err)
	require.Equal(t, "<html>v1</html>", string(data), "shell asset served from cache")
	require.Equal(t, 1, origin.calls)
}

func TestAssetCacheNetworkFirstWithFallback(t *testing.T) {
	origin := &countingFetcher{data: map[string][]byte{"data.json": []byte("one")}}
	cache := NewAssetCache("v1", nil, origin.fetch)

	data, err := cache.Get("data.json")
	require.NoError(t, err)
	require.Equal(t, "one", string(data))

	origin.data["data.json"] = []byte("two")
	data, err = cache.Get("data.json")
	require.NoError(t, err)
	require.Equal(t, "two", string(data), "non-shell asset refetched every time")

	origin.fail = true
	data, err = cache.Get("data.json")
	require.NoError(t, err)
	require.Equal(t, "two", string(data), "cached copy survives origin failure")
}

func TestAssetCacheMissAndOriginDown(t *testing.T) {
	origin := &countingFetcher{fail: true}
	cache := NewAssetCache("v1", nil, origin.fetch)

	_, err := cache.Get("missing.js")
	require.Error(t, err)
}

func TestAssetCacheVersionBumpClears(t *testing.T) {
	origin := &countingFetcher{data: map[string][]byte{"index.html": []byte("v1")}}
	cache := NewAssetCache("v1", []string{"index.html"}, origin.fetch)

	_, err := cache.Get("index.html")
	require.NoError(t, err)

	origin.data["index.html"] = []byte("v2")

	cache.SetVersion("v1")
	data, err := cache.Get("index.html")
	require.NoError(t, err)
	require.Equal(t, "v1", string(data), "same version keeps the cache")

	cache.SetVersion("v2")
	require.Equal(t, "v2", cache.Version())
	data, err = cache.Get("index.html")
	require.NoError(t, err)
	require.Equal(t, "v2", string(data), "bump refetches from origin")
}
