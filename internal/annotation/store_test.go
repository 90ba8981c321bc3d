package annotation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadCaching(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ann.json", `{"cap1": [{"img_path": "a.jpg"}]}`)
	store := NewStore(nil)

	first, err := store.Load(path)
	require.NoError(t, err)
	second, err := store.Load(path)
	require.NoError(t, err)
	// unchanged file returns the same in-memory document
	assert.Same(t, first["cap1"][0], second["cap1"][0])

	t.Run("modified file is re-read", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"cap1": [{"img_path": "b.jpg"}]}`), 0o644))
		require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(2*time.Second)))

		reloaded, err := store.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "b.jpg", reloaded["cap1"][0].ImgPath)
	})
}

func TestStoreSaveWritesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ann.json")
	store := NewStore(nil)

	doc := Document{"cap1": {rec("a.jpg", []string{"m1"}, "0.5")}}
	require.NoError(t, store.Save(path, doc))

	got, err := store.Load(path)
	require.NoError(t, err)
	// the save refreshed the cache, no re-read of our own write
	assert.Same(t, doc["cap1"][0], got["cap1"][0])
}

func TestStoreInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ann.json", `{"cap1": [{"img_path": "a.jpg"}]}`)
	store := NewStore(nil)

	first, err := store.Load(path)
	require.NoError(t, err)
	store.Invalidate(path)

	second, err := store.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first["cap1"][0], second["cap1"][0])
}
