package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, cfg func(*Config)) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	c := DefaultConfig(path)
	c.SaveInterval = time.Hour
	if cfg != nil {
		cfg(c)
	}
	ds, err := NewWithConfig(c)
	require.NoError(t, err)
	return ds, path
}

func TestRoundTrip(t *testing.T) {
	ds, path := newStore(t, nil)
	require.NoError(t, ds.Add("g1", map[string]any{"prefix": "?"}))
	require.NoError(t, ds.Add("global", map[string]any{"prefix": "!"}))
	require.NoError(t, ds.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"g1", "global"}, reopened.Keys())
	v, ok := reopened.Get("g1")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"prefix": "?"}, v)
}

func TestUpdate(t *testing.T) {
	ds, _ := newStore(t, nil)
	defer ds.Close()

	require.NoError(t, ds.Update("n", func(old any, exists bool) (any, bool) {
		assert.False(t, exists)
		return 1, true
	}))
	require.NoError(t, ds.Update("n", func(old any, exists bool) (any, bool) {
		assert.Equal(t, 1, old)
		return nil, false
	}))
	v, _ := ds.Get("n")
	assert.Equal(t, 1, v)

	require.NoError(t, ds.Delete("n"))
	assert.Empty(t, ds.Keys())
}

func TestClosed(t *testing.T) {
	ds, _ := newStore(t, nil)
	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Add("k", "v"), ErrClosed)
	assert.ErrorIs(t, ds.Delete("k"), ErrClosed)
	_, ok := ds.Get("k")
	assert.False(t, ok)
	assert.Empty(t, ds.Keys())
	assert.ErrorIs(t, ds.Flush(), ErrClosed)
}

func TestBackups(t *testing.T) {
	ds, path := newStore(t, func(c *Config) { c.Backups = 1 })
	defer ds.Close()

	require.NoError(t, ds.Add("k", "one"))
	require.NoError(t, ds.Flush())
	require.NoError(t, ds.Add("k", "two"))
	require.NoError(t, ds.Flush())

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"two"`)
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}
