package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestValidateInsideSandbox(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "docs", "notes.txt")
	writeFile(t, file, "hello")

	g := NewGuard(Policy{Allow: []string{root}})

	resolved, err := g.Validate(file)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))
}

func TestValidateOutsideSandbox(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	file := filepath.Join(outside, "secret.txt")
	writeFile(t, file, "nope")

	g := NewGuard(Policy{Allow: []string{root}})

	_, err := g.Validate(file)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestValidateDotDotEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "escape.txt"), "x")

	g := NewGuard(Policy{Allow: []string{root}})

	// Canonicalizes outside the root even though it starts inside it.
	sneaky := filepath.Join(root, "..", filepath.Base(outside), "escape.txt")
	_, err := g.Validate(sneaky)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestBlockListWinsOverAllowList(t *testing.T) {
	root := t.TempDir()
	creds := filepath.Join(root, "credentials")
	file := filepath.Join(creds, "key.txt")
	writeFile(t, file, "secret")

	g := NewGuard(Policy{
		Allow: []string{root},
		Block: []string{creds},
	})

	// The parent is allowed...
	ok := filepath.Join(root, "plain.txt")
	writeFile(t, ok, "fine")
	_, err := g.Validate(ok)
	require.NoError(t, err)

	// ...but the nested blocked directory stays unreachable.
	_, err = g.Validate(file)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestValidateNotFound(t *testing.T) {
	root := t.TempDir()
	g := NewGuard(Policy{Allow: []string{root}})

	_, err := g.Validate(filepath.Join(root, "missing.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateMissingOutsidePathDenied(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	g := NewGuard(Policy{Allow: []string{root}})

	// A nonexistent path outside the sandbox must not reveal whether it
	// exists; denial takes precedence over not-found.
	_, err := g.Validate(filepath.Join(outside, "missing.txt"))
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestValidateMissingBlockedPathDenied(t *testing.T) {
	root := t.TempDir()
	creds := filepath.Join(root, ".aws")
	g := NewGuard(Policy{Allow: []string{root}, Block: []string{creds}})

	_, err := g.Validate(filepath.Join(creds, "credentials"))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestValidateTooLarge(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "big.bin")
	writeFile(t, file, string(make([]byte, 2048)))

	g := NewGuard(Policy{Allow: []string{root}, MaxFileSize: 1024})

	_, err := g.Validate(file)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestValidateSymlinkPolicy(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "target.txt")
	writeFile(t, target, "x")

	link := filepath.Join(root, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	denying := NewGuard(Policy{Allow: []string{root}})
	_, err := denying.Validate(link)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Even when symlinks are followed, the resolved target must still be
	// inside an allowed root.
	following := NewGuard(Policy{Allow: []string{root}, FollowSymlinks: true})
	_, err = following.Validate(link)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// A symlink to an allowed location passes only with FollowSymlinks.
	inTarget := filepath.Join(root, "real.txt")
	writeFile(t, inTarget, "y")
	inLink := filepath.Join(root, "inlink.txt")
	require.NoError(t, os.Symlink(inTarget, inLink))

	_, err = denying.Validate(inLink)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = following.Validate(inLink)
	assert.NoError(t, err)
}

func TestValidateDirectoryIgnoresSizeCeiling(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	g := NewGuard(Policy{Allow: []string{root}, MaxFileSize: 1})
	_, err := g.Validate(sub)
	assert.NoError(t, err)
}

func TestDefaultPolicyBlocksCredentialDirs(t *testing.T) {
	p := DefaultPolicy(t.TempDir())
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Contains(t, p.Block, filepath.Join(home, ".ssh"))
	assert.Contains(t, p.Block, filepath.Join(home, ".aws"))
	assert.Equal(t, int64(DefaultMaxFileSize), p.MaxFileSize)
	assert.False(t, p.FollowSymlinks)
}
