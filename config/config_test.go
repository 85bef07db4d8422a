package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "haunted.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, VariantTextured, cfg.Scene.Variant)
	assert.Equal(t, 30, cfg.Scene.Graves)
	assert.True(t, cfg.Scene.Shadows)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
[scene]
variant = "flat"
seed = 42

[textures]
watch = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, VariantFlat, cfg.Scene.Variant)
	assert.Equal(t, int64(42), cfg.Scene.Seed)
	assert.True(t, cfg.Textures.Watch)
	assert.Equal(t, "static", cfg.Textures.Root)
	assert.Equal(t, 1280, cfg.Window.Width)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"variant": "[scene]\nvariant = \"spooky\"\n",
		"size":    "[window]\nwidth = 0\n",
		"graves":  "[scene]\ngraves = -1\n",
		"level":   "[debug]\nlog_level = \"chatty\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "[scene]\nghosts = 4\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Scene.Seed = 7
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
