package types

import (
	"fmt"
	"strings"
)

// Severity ranks a validation finding. Only SeverityError blocks a round.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category tags what kind of inconsistency a finding describes.
type Category string

const (
	CategoryMissingFile             Category = "MissingFile"
	CategoryUndeclaredPackage       Category = "UndeclaredPackage"
	CategoryUndefinedModelReference Category = "UndefinedModelReference"
	CategoryMissingImplementation   Category = "MissingImplementation"
	CategoryStructureMismatch       Category = "StructureMismatch"
	CategoryDanglingReference       Category = "DanglingReference"
)

// ValidationIssue is a single finding produced by a validator.
type ValidationIssue struct {
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
	SourceFile string   `json:"source_file,omitempty"`
	Target     string   `json:"target"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// IsBlocking reports whether the issue must be fixed before generation continues.
func (i ValidationIssue) IsBlocking() bool {
	return i.Severity == SeverityError
}

// String renders the issue on one line, e.g.
// "[MissingFile] frontend/views/Home.vue: cannot resolve import ./Profile.vue".
func (i ValidationIssue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", i.Category)
	if src := strings.TrimSpace(i.SourceFile); src != "" {
		b.WriteString(" ")
		b.WriteString(src)
		b.WriteString(":")
	}
	b.WriteString(" ")
	b.WriteString(i.Message)
	return b.String()
}

// HasBlocking reports whether any issue in the list is error-severity.
func HasBlocking(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.IsBlocking() {
			return true
		}
	}
	return false
}
