package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mappingEntry struct {
	Image string         `json:"image"`
	Roles map[string]int `json:"roles"`
}

func TestFileCacheRoundTrip(t *testing.T) {
	fc := NewFileCache[mappingEntry](filepath.Join(t.TempDir(), "mappings"))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return fixed }

	key := fc.GenerateKey("/data/scene.tif")
	_, ok := fc.Get(key)
	assert.False(t, ok)

	want := mappingEntry{Image: "scene.tif", Roles: map[string]int{"NIR": 3}}
	require.NoError(t, fc.Set(key, want))

	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, want, got)

	entry, ok := fc.Entry(key)
	require.True(t, ok)
	assert.True(t, fixed.Equal(entry.CreatedAt))

	_, err := os.Stat(filepath.Join(fc.Dir(), key+".json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileCacheRejectsTamperedEntry(t *testing.T) {
	fc := NewFileCache[mappingEntry](t.TempDir())
	key := fc.GenerateKey("scene")
	require.NoError(t, fc.Set(key, mappingEntry{Image: "a"}))

	path := filepath.Join(fc.Dir(), key+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := []byte(string(raw[:len(raw)-1]) + `,"data":{"image":"b"}}`)
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, ok := fc.Get(key)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, ok = fc.Get(key)
	assert.False(t, ok)
}

func TestFileCacheDelete(t *testing.T) {
	fc := NewFileCache[int](t.TempDir())
	require.NoError(t, fc.Set("k", 7))
	require.NoError(t, fc.Delete("k"))
	_, ok := fc.Get("k")
	assert.False(t, ok)
	assert.NoError(t, fc.Delete("k"))
}

func TestGenerateKeyIsStable(t *testing.T) {
	fc := NewFileCache[int](t.TempDir())
	assert.Equal(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 1))
	assert.NotEqual(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 2))
	assert.Len(t, fc.GenerateKey("x"), 40)
}
