package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
	})

	t.Run("values are sanitized", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
  "annotationsDir": "  data  ",
  "fileExt": "json",
  "pageSize": 500,
  "imagesPerRow": 0,
  "thumbWidth": 10
}`), 0o644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "data", cfg.AnnotationsDir)
		assert.Equal(t, ".json", cfg.FileExt)
		assert.Equal(t, 50, cfg.PageSize)
		assert.Equal(t, 3, cfg.ImagesPerRow)
		assert.Equal(t, 250, cfg.ThumbWidth)
		assert.Equal(t, 300, cfg.CacheTTLSec)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	want := defaultConfig()
	want.PageSize = 20
	want.Debug = true

	require.NoError(t, SaveConfig(path, want))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
