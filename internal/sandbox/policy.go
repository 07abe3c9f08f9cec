package sandbox

import (
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the largest file direct access will serve (50 MB).
const DefaultMaxFileSize = 50 << 20

// Policy describes which parts of the filesystem the assistant may touch.
// It is built once at startup and never mutated afterwards.
type Policy struct {
	// Allow is the set of directory roots access is permitted under.
	Allow []string
	// Block is the set of directory roots access is always denied under,
	// even when nested inside an allowed root.
	Block []string
	// MaxFileSize is the size ceiling in bytes for regular files.
	MaxFileSize int64
	// FollowSymlinks permits paths whose resolution crosses a symlink.
	FollowSymlinks bool
}

// defaultBlockRoots are sensitive locations that stay blocked even when a
// parent directory (typically the home directory) is broadly allowed.
var defaultBlockRoots = []string{
	".ssh",
	".aws",
	".gnupg",
	".config",
	".kube",
	".docker",
}

var defaultSystemBlocks = []string{
	"/etc",
	"/private/etc",
	"/usr",
	"/bin",
	"/sbin",
	"/var",
}

// DefaultPolicy returns the standard policy for a sandbox rooted at root:
// the sandbox itself plus a few common user directories are allowed, and
// credential and system directories are blocked.
func DefaultPolicy(root string) Policy {
	allow := []string{root}
	block := append([]string{}, defaultSystemBlocks...)

	if home, err := os.UserHomeDir(); err == nil {
		allow = append(allow,
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Downloads"),
		)
		for _, d := range defaultBlockRoots {
			block = append(block, filepath.Join(home, d))
		}
	}

	return Policy{
		Allow:       allow,
		Block:       block,
		MaxFileSize: DefaultMaxFileSize,
	}
}
