package workspace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// Manifest names recognised by DeclaredPackages.
const (
	PackageJSON  = "package.json"
	Requirements = "requirements.txt"
	GoMod        = "go.mod"
)

// IsManifest reports whether a slash path names a dependency manifest.
func IsManifest(p string) bool {
	switch path.Base(p) {
	case PackageJSON, Requirements, GoMod:
		return true
	}
	return false
}

// DeclaredPackages collects third-party package names from every manifest
// under root. The result is sorted and free of duplicates.
func DeclaredPackages(root string) ([]string, error) {
	r, err := OpenRoot(root)
	if err != nil {
		return nil, err
	}
	return r.DeclaredPackages()
}

func (r *Root) DeclaredPackages() ([]string, error) {
	seen := map[string]struct{}{}
	err := filepath.WalkDir(r.abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != r.abs && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsManifest(d.Name()) {
			return nil
		}
		rel, err := r.Rel(p)
		if err != nil {
			return err
		}
		data, err := r.ReadFile(rel)
		if err != nil {
			return err
		}
		names, err := ParseManifest(rel, data)
		if err != nil {
			return err
		}
		for _, n := range names {
			seen[n] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// ParseManifest extracts package names from a manifest; the format is
// chosen by the base name of p.
func ParseManifest(p string, data []byte) ([]string, error) {
	switch path.Base(p) {
	case PackageJSON:
		return parsePackageJSON(p, data)
	case Requirements:
		return parseRequirements(data), nil
	case GoMod:
		return parseGoMod(p, data)
	}
	return nil, fmt.Errorf("workspace: %s is not a known manifest", p)
}

func parsePackageJSON(p string, data []byte) ([]string, error) {
	var pkg struct {
		Dependencies     map[string]string `json:"dependencies"`
		DevDependencies  map[string]string `json:"devDependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	var out []string
	for _, m := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		for name := range m {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func parseRequirements(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.IndexAny(line, "<>=!~;[@ \t"); i >= 0 {
			line = line[:i]
		}
		if line != "" {
			out = append(out, strings.ToLower(line))
		}
	}
	return out
}

func parseGoMod(p string, data []byte) ([]string, error) {
	f, err := modfile.ParseLax(p, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	var out []string
	if f.Module != nil {
		out = append(out, f.Module.Mod.Path)
	}
	for _, req := range f.Require {
		out = append(out, req.Mod.Path)
	}
	return out, nil
}
