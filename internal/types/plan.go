package types

// Plan lists the files a round is about to generate.
type Plan struct {
	Files []PlannedFile `json:"files" yaml:"files" validate:"dive"`
}

type PlannedFile struct {
	Path         string   `json:"path" yaml:"path" validate:"required"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Paths returns the planned paths in plan order.
func (p Plan) Paths() []string {
	out := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		out = append(out, f.Path)
	}
	return out
}
