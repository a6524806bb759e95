package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Contract describes the architecture a generated project is meant to satisfy.
// A new round may supply a revised Contract; it replaces the prior one wholesale.
type Contract struct {
	APIEndpoints  []Endpoint    `json:"api_endpoints" yaml:"api_endpoints" validate:"dive"`
	DataModels    []DataModel   `json:"data_models" yaml:"data_models" validate:"dive"`
	FileStructure FileStructure `json:"file_structure" yaml:"file_structure" validate:"dive"`
}

type Endpoint struct {
	Path           string   `json:"path" yaml:"path" validate:"required"`
	Methods        []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	RequestSchema  string   `json:"request_schema,omitempty" yaml:"request_schema,omitempty"`
	ResponseSchema string   `json:"response_schema,omitempty" yaml:"response_schema,omitempty"`
}

type DataModel struct {
	Name   string  `json:"name" yaml:"name" validate:"required"`
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty" validate:"dive"`
}

// Field is one data model attribute. Documents may give a bare name.
type Field struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// DirectoryRole binds a named role ("views", "entry module") to a path prefix.
type DirectoryRole struct {
	Role string `json:"role" yaml:"role" validate:"required"`
	Path string `json:"path" yaml:"path" validate:"required"`
}

// FileStructure is an ordered list of directory roles. It decodes from either
// a list of {role, path} or a mapping role -> path. YAML mappings keep
// document order; JSON objects are ordered by role name.
type FileStructure []DirectoryRole

// Lookup returns the prefix bound to role.
func (fs FileStructure) Lookup(role string) (string, bool) {
	for _, r := range fs {
		if r.Role == role {
			return r.Path, true
		}
	}
	return "", false
}

func (fs *FileStructure) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(FileStructure, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var role, path string
			if err := node.Content[i].Decode(&role); err != nil {
				return fmt.Errorf("file_structure key: %w", err)
			}
			if err := node.Content[i+1].Decode(&path); err != nil {
				return fmt.Errorf("file_structure[%s]: %w", role, err)
			}
			out = append(out, DirectoryRole{Role: role, Path: path})
		}
		*fs = out
		return nil
	case yaml.SequenceNode:
		var list []DirectoryRole
		if err := node.Decode(&list); err != nil {
			return err
		}
		*fs = list
		return nil
	default:
		if node.ShortTag() == "!!null" {
			*fs = nil
			return nil
		}
		return fmt.Errorf("file_structure: expected mapping or list, got %s", node.ShortTag())
	}
}

func (fs *FileStructure) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" || trimmed == "" {
		*fs = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []DirectoryRole
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		*fs = list
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("file_structure: %w", err)
	}
	roles := make([]string, 0, len(m))
	for k := range m {
		roles = append(roles, k)
	}
	sort.Strings(roles)
	out := make(FileStructure, 0, len(roles))
	for _, r := range roles {
		out = append(out, DirectoryRole{Role: r, Path: m[r]})
	}
	*fs = out
	return nil
}

func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		f.Type = ""
		return nil
	}
	type plain Field
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = Field(p)
	return nil
}

func (f *Field) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		f.Name = name
		f.Type = ""
		return nil
	}
	type plain Field
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*f = Field(p)
	return nil
}
