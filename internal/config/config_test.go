package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Burrow"), cfg.Root)
	assert.Equal(t, int64(50<<20), cfg.MaxFileSize)
	assert.True(t, cfg.RenameGeneric)
	assert.True(t, cfg.Persist)
	assert.False(t, cfg.FollowSymlinks)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(cfg.Root, ".burrow", "index.db"), cfg.DBPath)
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".burrow")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	yaml := `root: /srv/files
log_level: debug
rename_generic: false
db_path: /srv/files/custom.db
allow_dirs:
  - /srv/shared
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/files", cfg.Root)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.RenameGeneric)
	assert.Equal(t, "/srv/files/custom.db", cfg.DBPath)
	assert.Equal(t, []string{"/srv/shared"}, cfg.AllowDirs)
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".burrow")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("root: /from/file\n"), 0o644))

	t.Setenv("BURROW_ROOT", "/from/env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Root)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".burrow")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("root: [unclosed\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}
