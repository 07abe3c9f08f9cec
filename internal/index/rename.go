package index

import (
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// genericNamePatterns match default names produced by cameras, phones, and
// screenshot tools. Files arriving with these names get a date-stamped
// prefix so they stay findable (toggleable via Config.RenameGeneric).
var genericNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^IMG[_-]?\d{3,}`),
	regexp.MustCompile(`(?i)^DSC[_-]?\d{3,}`),
	regexp.MustCompile(`(?i)^DCIM\d*`),
	regexp.MustCompile(`(?i)^PXL_\d{8}`),
	regexp.MustCompile(`(?i)^GOPR\d{3,}`),
	regexp.MustCompile(`(?i)^(VID|MOV)[_-]?\d{3,}`),
	regexp.MustCompile(`(?i)^Screen[ _]?Shot[ _-]`),
	regexp.MustCompile(`(?i)^Screenshot[ _-]?`),
	regexp.MustCompile(`(?i)^Untitled(\s*\d*)?\.`),
}

// IsGenericName reports whether name looks like an automatic capture name.
func IsGenericName(name string) bool {
	for _, p := range genericNamePatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// datePrefixed returns name with a date-stamped prefix.
func datePrefixed(name string, t time.Time) string {
	return t.Format("2006-01-02") + "_" + name
}

// maybeRename renames a generically named file in place on disk and returns
// the path to index. Any failure (target exists, rename denied) leaves the
// original untouched and returns it unchanged.
func (ix *Index) maybeRename(absPath string) string {
	name := filepath.Base(absPath)
	if !IsGenericName(name) {
		return absPath
	}

	newPath := filepath.Join(filepath.Dir(absPath), datePrefixed(name, time.Now()))
	if _, err := os.Stat(newPath); err == nil {
		return absPath // never clobber an existing file
	}
	if err := os.Rename(absPath, newPath); err != nil {
		ix.logger.Warn("rename failed", "from", absPath, "error", err)
		return absPath
	}

	ix.logger.Info("renamed generic file", "from", name, "to", filepath.Base(newPath))
	return newPath
}
