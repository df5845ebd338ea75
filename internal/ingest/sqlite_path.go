package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ResolveSQLitePath maps a requested sqlite database name onto an existing
// regular file under dir. Names are relative to dir; a leading slash is
// treated as dir's root. Paths that escape dir, match a deny entry, or do
// not exist fail with ErrPathNotAllowed.
func ResolveSQLitePath(dir, name string, deny []string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: sqlite imports are disabled", ErrPathNotAllowed)
	}
	if strings.ContainsAny(name, "?#\x00") {
		return "", fmt.Errorf("%w: %q", ErrPathNotAllowed, name)
	}

	root, err := canonicalPath(dir)
	if err != nil {
		return "", fmt.Errorf("%w: import directory: %v", ErrPathNotAllowed, err)
	}
	joined := filepath.Join(root, filepath.Clean(string(filepath.Separator)+name))
	path, err := canonicalPath(joined)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrPathNotAllowed, name)
	}
	if !within(root, path) {
		return "", fmt.Errorf("%w: %q is outside the import directory", ErrPathNotAllowed, name)
	}

	for _, d := range deny {
		if d == "" || d == ":memory:" {
			continue
		}
		denied, err := canonicalPath(d)
		if err != nil {
			continue
		}
		if denied == path {
			return "", fmt.Errorf("%w: %q", ErrPathNotAllowed, name)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrPathNotAllowed, name)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q is not a file", ErrPathNotAllowed, name)
	}
	return path, nil
}

// canonicalPath returns the absolute path with symlinks resolved. A missing
// file is reported as fs.ErrNotExist.
func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fs.ErrNotExist
		}
		return "", err
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
