// Package filex holds local filesystem helpers for the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdDir creates dirName under the working directory if needed and
// returns its absolute path. An absolute dirName is used as is.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// CreateExclusive creates name inside dir, failing if it already exists.
// name is reduced to its base so it cannot escape dir.
func CreateExclusive(dir, name string) (*os.File, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	return os.OpenFile(filepath.Join(dir, base), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
}
