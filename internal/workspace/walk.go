package workspace

import (
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// CreatedBy marks records that were picked up from disk.
const CreatedBy = "workspace"

// DefaultMaxFileSize caps how much of a single file is loaded.
const DefaultMaxFileSize = 1 << 20

type WalkOptions struct {
	// Extensions restricts which files are loaded. Empty means every file.
	Extensions []string
	// MaxFileSize skips larger files. Zero uses DefaultMaxFileSize.
	MaxFileSize int64
	// SkipDirs replaces the default list of ignored directory names.
	SkipDirs []string
}

var defaultSkipDirs = []string{
	".git", ".hg", ".svn", "node_modules", "vendor", "target", "build",
	".next", ".cache", "__pycache__", ".venv", "venv", "dist",
}

// SkipDir reports whether a directory with this base name is never walked.
func SkipDir(name string) bool {
	for _, d := range defaultSkipDirs {
		if d == name {
			return true
		}
	}
	return false
}

// Walk loads every eligible file under root as a FileWrite. Paths are
// slash-separated and relative to root; the result is sorted by path.
func Walk(root string, opts WalkOptions) ([]types.FileWrite, error) {
	r, err := OpenRoot(root)
	if err != nil {
		return nil, err
	}
	return r.Walk(opts)
}

func (r *Root) Walk(opts WalkOptions) ([]types.FileWrite, error) {
	skip := SkipDir
	if len(opts.SkipDirs) > 0 {
		set := make(map[string]struct{}, len(opts.SkipDirs))
		for _, d := range opts.SkipDirs {
			set[d] = struct{}{}
		}
		skip = func(name string) bool { _, ok := set[name]; return ok }
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	limit := opts.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}

	var out []types.FileWrite
	err := filepath.WalkDir(r.abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != r.abs && skip(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if len(exts) > 0 {
			if _, ok := exts[strings.ToLower(filepath.Ext(p))]; !ok {
				return nil
			}
		}
		rel, err := r.Rel(p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > limit {
			log.Printf("Workspace: skipping %s (%d bytes)", rel, info.Size())
			return nil
		}
		data, err := r.ReadFile(rel)
		if err != nil {
			// Dangling or escaping symlinks are not part of the project.
			log.Printf("Workspace: skipping %s: %v", rel, err)
			return nil
		}
		out = append(out, types.FileWrite{
			Path:      rel,
			Content:   string(data),
			CreatedBy: CreatedBy,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
