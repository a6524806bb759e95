// Package extract pulls import specifiers and exported symbol names out of
// source files. Extraction is pattern based and best-effort: it never fails,
// and malformed input simply yields fewer (or no) symbols.
package extract

import (
	"log"
	"path"
	"sort"
	"strings"
	"sync"
)

// Extractor is implemented by each per-language variant.
type Extractor interface {
	// SupportedExtensions lists the lower-cased extensions (with leading dot)
	// this extractor claims, e.g. ".js".
	SupportedExtensions() []string
	ExtractImports(content string) []string
	ExtractExports(content string) []string
}

// Registry dispatches extraction by file extension.
//
// Registering an extractor for an extension that is already claimed replaces
// the previous claim: the last registration wins. Other extensions of the
// earlier extractor keep pointing at it.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]Extractor
	version uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Default returns a registry with the built-in variants.
func Default() *Registry {
	r := NewRegistry()
	r.Register(ScriptExtractor{})
	r.Register(PythonExtractor{})
	r.Register(GoExtractor{})
	r.Register(StyleExtractor{})
	return r
}

// Register claims every extension e supports.
func (r *Registry) Register(e Extractor) {
	if r == nil || e == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.SupportedExtensions() {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		r.byExt[ext] = e
	}
	r.version++
}

// Version changes every time Register is called. Callers memoizing
// extraction results include it in their cache keys.
func (r *Registry) Version() uint64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// For returns the extractor claiming p's extension.
func (r *Registry) For(p string) (Extractor, bool) {
	if r == nil {
		return nil, false
	}
	ext := normalizeExt(path.Ext(p))
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExt[ext]
	return e, ok
}

// Extensions returns every claimed extension, sorted.
func (r *Registry) Extensions() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract runs the extractor for p over content. Files with no matching
// extractor have no discoverable symbols. A panicking extractor is treated as
// having found nothing.
func (r *Registry) Extract(p, content string) (imports, exports []string) {
	e, ok := r.For(p)
	if !ok {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("extract: extractor for %s panicked: %v", p, rec)
			imports, exports = nil, nil
		}
	}()
	imports = uniqueOrdered(e.ExtractImports(content))
	exports = uniqueSorted(e.ExtractExports(content))
	return imports, exports
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func uniqueOrdered(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func uniqueSorted(in []string) []string {
	out := uniqueOrdered(in)
	sort.Strings(out)
	return out
}
