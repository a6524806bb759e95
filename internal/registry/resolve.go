package registry

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// ErrInvalidPath is returned for paths that cannot name a file inside the
// project: empty, absolute, or escaping the project root.
var ErrInvalidPath = errors.New("invalid path")

// Options control how specifiers are resolved against registered paths.
type Options struct {
	// SourceExtensions are appended to a candidate path, in order, when the
	// bare candidate is not registered.
	SourceExtensions []string
	// IndexNames are tried as <candidate>/<name><ext> after the extensions.
	IndexNames []string
	// Aliases map a specifier prefix such as "@/" to a project-relative root.
	Aliases map[string]string
	// CacheSize bounds the extraction memo.
	CacheSize int
}

func DefaultOptions() Options {
	return Options{
		SourceExtensions: []string{".js", ".jsx", ".ts", ".tsx", ".vue", ".mjs", ".cjs", ".py", ".go", ".css", ".scss", ".json"},
		IndexNames:       []string{"index", "__init__"},
		Aliases:          map[string]string{},
		CacheSize:        512,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SourceExtensions == nil {
		o.SourceExtensions = def.SourceExtensions
	}
	if o.IndexNames == nil {
		o.IndexNames = def.IndexNames
	}
	aliases := make(map[string]string, len(o.Aliases))
	for prefix, root := range o.Aliases {
		if prefix == "" {
			continue
		}
		aliases[prefix] = normalize(root)
	}
	o.Aliases = aliases
	if o.CacheSize <= 0 {
		o.CacheSize = def.CacheSize
	}
	return o
}

// CleanPath normalizes p to a slash-separated, project-relative path.
func CleanPath(p string) (string, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.HasPrefix(raw, "/") || (len(raw) > 1 && raw[1] == ':') {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	clean := path.Clean(raw)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes the project root", ErrInvalidPath, p)
	}
	return clean, nil
}

// normalize is CleanPath without the error channel; invalid paths collapse
// to "" or to a path that cannot be registered.
func normalize(p string) string {
	clean, err := CleanPath(p)
	if err != nil {
		return ""
	}
	return clean
}

// IsLocalSpecifier reports whether spec refers to a project file rather
// than an external package.
func (r *Registry) IsLocalSpecifier(spec string) bool {
	if strings.HasPrefix(spec, ".") {
		return true
	}
	_, _, ok := r.alias(spec)
	return ok
}

// ResolveRelative reports whether specifier, imported from fromPath, names a
// registered file. Bare specifiers are external and always resolve.
func (r *Registry) ResolveRelative(fromPath, specifier string) bool {
	if !r.IsLocalSpecifier(specifier) {
		return true
	}
	_, ok := r.Lookup(fromPath, specifier)
	return ok
}

// Lookup returns the registered path a local specifier resolves to. The
// candidate is tried as-is, then with each source extension, then as an
// index file for each index name and extension.
func (r *Registry) Lookup(fromPath, specifier string) (string, bool) {
	candidate, ok := r.candidate(fromPath, specifier)
	if !ok {
		return "", false
	}
	return r.LookupPath(candidate)
}

// LookupPath applies the same suffix variants to a project-relative path.
func (r *Registry) LookupPath(p string) (string, bool) {
	candidate := normalize(p)
	if candidate == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.lookupKeys(candidate) {
		if _, ok := r.records[key]; ok {
			return key, true
		}
	}
	return "", false
}

// Target returns the project-relative path a local specifier points at,
// before any extension or index lookup.
func (r *Registry) Target(fromPath, specifier string) (string, bool) {
	return r.candidate(fromPath, specifier)
}

func (r *Registry) candidate(fromPath, specifier string) (string, bool) {
	spec := stripQuery(specifier)
	var joined string
	if strings.HasPrefix(spec, ".") {
		joined = path.Join(path.Dir(normalize(fromPath)), spec)
	} else if prefix, root, ok := r.alias(spec); ok {
		joined = path.Join(root, strings.TrimPrefix(spec, prefix))
	} else {
		return "", false
	}
	if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") || strings.HasPrefix(joined, "/") {
		return "", false
	}
	return joined, true
}

func (r *Registry) lookupKeys(candidate string) []string {
	exts := r.opts.SourceExtensions
	out := make([]string, 0, 1+len(exts)+len(exts)*len(r.opts.IndexNames))
	out = append(out, candidate)
	for _, ext := range exts {
		out = append(out, candidate+ext)
	}
	for _, name := range r.opts.IndexNames {
		for _, ext := range exts {
			out = append(out, candidate+"/"+name+ext)
		}
	}
	return out
}

// alias returns the longest configured alias prefix matching spec.
func (r *Registry) alias(spec string) (prefix, root string, ok bool) {
	if len(r.opts.Aliases) == 0 {
		return "", "", false
	}
	prefixes := make([]string, 0, len(r.opts.Aliases))
	for p := range r.opts.Aliases {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	for _, p := range prefixes {
		if strings.HasPrefix(spec, p) {
			return p, r.opts.Aliases[p], true
		}
	}
	return "", "", false
}

func stripQuery(spec string) string {
	if i := strings.IndexAny(spec, "?#"); i >= 0 {
		return spec[:i]
	}
	return spec
}
