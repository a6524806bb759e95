// Package workspace reads a generated project tree from disk and turns it
// into registry writes. All reads are locked to the workspace root.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Root resolves workspace-relative paths against a fixed, symlink-free
// directory.
type Root struct {
	abs string
}

// OpenRoot binds a Root to dir. dir must exist and be a directory.
func OpenRoot(dir string) (*Root, error) {
	if dir == "" {
		return nil, errors.New("workspace: empty root")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: %s is not a directory", dir)
	}
	return &Root{abs: abs}, nil
}

func (r *Root) Path() string {
	if r == nil {
		return ""
	}
	return r.abs
}

// ReadFile reads a file given by a slash-separated path relative to the root.
func (r *Root) ReadFile(rel string) ([]byte, error) {
	p, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("workspace: %s is a directory", rel)
	}
	return os.ReadFile(p)
}

// Rel converts an absolute path under the root to its slash-separated
// relative form.
func (r *Root) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(r.abs, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("workspace: %s is outside %s", abs, r.abs)
	}
	return rel, nil
}

func (r *Root) resolve(rel string) (string, error) {
	if r == nil {
		return "", errors.New("workspace: root not configured")
	}
	if rel == "" {
		return "", errors.New("workspace: empty path")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("workspace: absolute path %q", rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("workspace: path %q escapes the root", rel)
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(r.abs, clean))
	if err != nil {
		return "", err
	}
	if !within(resolved, r.abs) {
		return "", fmt.Errorf("workspace: %q resolves outside the root", rel)
	}
	return resolved, nil
}

func within(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
