package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"burrow/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenStoreDisabled(t *testing.T) {
	st := openStore(&config.Config{Persist: false}, testLogger())
	assert.Nil(t, st)
}

func TestOpenStoreDegradesOnFailure(t *testing.T) {
	// The db directory collides with a regular file, so the store cannot
	// open; the command keeps running in-memory instead of aborting.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := &config.Config{
		Persist: true,
		DBPath:  filepath.Join(blocker, "index.db"),
	}
	st := openStore(cfg, testLogger())
	assert.Nil(t, st)
}

func TestOpenStoreHappyPath(t *testing.T) {
	cfg := &config.Config{
		Persist: true,
		DBPath:  filepath.Join(t.TempDir(), ".burrow", "index.db"),
	}
	st := openStore(cfg, testLogger())
	require.NotNil(t, st)
	require.NoError(t, st.Close())
}
