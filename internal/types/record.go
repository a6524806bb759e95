package types

import "time"

// FileRecord is the registry entry for one generated file.
type FileRecord struct {
	Path                 string    `json:"path"`
	Description          string    `json:"description,omitempty"`
	CreatedBy            string    `json:"created_by,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	ContentHash          string    `json:"content_hash"`
	DeclaredDependencies []string  `json:"declared_dependencies,omitempty"`
	Exports              []string  `json:"exports,omitempty"` // sorted, unique
	Imports              []string  `json:"imports,omitempty"` // first-seen order, unique
	// Seq is the registration ordinal. It survives re-registration so that
	// iteration order stays the order in which paths were first seen.
	Seq uint64 `json:"seq"`
}

// Clone returns a deep copy so callers cannot alias registry-owned slices.
func (r FileRecord) Clone() FileRecord {
	out := r
	out.DeclaredDependencies = append([]string(nil), r.DeclaredDependencies...)
	out.Exports = append([]string(nil), r.Exports...)
	out.Imports = append([]string(nil), r.Imports...)
	return out
}

// HasExport reports whether name is among the file's exports.
func (r FileRecord) HasExport(name string) bool {
	for _, e := range r.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// FileWrite is emitted by a generation agent once the workspace layer has
// persisted a file.
type FileWrite struct {
	Path                 string   `json:"path" yaml:"path"`
	Content              string   `json:"content" yaml:"content"`
	Description          string   `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedBy            string   `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	DeclaredDependencies []string `json:"declared_dependencies,omitempty" yaml:"declared_dependencies,omitempty"`
}
