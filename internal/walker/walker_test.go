package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func collect(t *testing.T, root string, opts Options) ([]FileInfo, error) {
	t.Helper()
	files, errs := Walk(root, opts)
	var out []FileInfo
	for fi := range files {
		out = append(out, fi)
	}
	return out, <-errs
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, fi := range files {
		out[i] = fi.RelPath
	}
	return out
}

func TestWalkFindsRegularFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.txt"))
	write(t, filepath.Join(root, "sub", "b.txt"))

	files, err := collect(t, root, Options{})
	require.NoError(t, err)

	got := relPaths(files)
	assert.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, got)

	for _, fi := range files {
		assert.True(t, filepath.IsAbs(fi.Path))
		assert.Equal(t, int64(1), fi.Size)
		assert.False(t, fi.ModTime.IsZero())
	}
}

func TestWalkSkipsHidden(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "seen.txt"))
	write(t, filepath.Join(root, ".git", "config"))
	write(t, filepath.Join(root, ".cache", "deep", "blob"))

	files, err := collect(t, root, Options{SkipHidden: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"seen.txt"}, relPaths(files))

	// Hidden directories are traversed when the option is off.
	files, err = collect(t, root, Options{})
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestWalkDepthBound(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "top.txt"))
	write(t, filepath.Join(root, "a", "b", "two.txt"))
	write(t, filepath.Join(root, "a", "b", "c", "three.txt"))

	files, err := collect(t, root, Options{MaxDepth: 2})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"top.txt", "a/b/two.txt"}, relPaths(files))
}

func TestWalkMatchFilter(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "keep.md"))
	write(t, filepath.Join(root, "drop.txt"))

	files, err := collect(t, root, Options{
		Match: func(name string) bool { return strings.HasSuffix(name, ".md") },
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keep.md"}, relPaths(files))
}

func TestWalkSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "real.txt"))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	files, err := collect(t, root, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"real.txt"}, relPaths(files))
}

func TestWalkMissingRoot(t *testing.T) {
	files, err := collect(t, filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
	assert.Empty(t, files)
}
