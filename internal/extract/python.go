package extract

import (
	"regexp"
	"strings"
)

var (
	rePyImport     = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([^\n#]+)`)
	rePyFromImport = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.*[\w.]*)[ \t]+import[ \t]+(\([^)]*\)|[^\n#]+)`)
	rePyDef        = regexp.MustCompile(`(?m)^(?:async[ \t]+)?def[ \t]+([A-Za-z_]\w*)`)
	rePyClass      = regexp.MustCompile(`(?m)^class[ \t]+([A-Za-z_]\w*)`)
	rePyAssign     = regexp.MustCompile(`(?m)^([A-Za-z_]\w*)[ \t]*(?::[^=\n]+)?=[^=]`)
	rePyAll        = regexp.MustCompile(`(?s)(?m:^)__all__[ \t]*(?::[^=\n]+)?=[ \t]*[\[(](.*?)[\])]`)
	rePyQuoted     = regexp.MustCompile(`['"]([A-Za-z_]\w*)['"]`)
)

// PythonExtractor handles Python modules. Relative from-imports are rewritten
// into path form ("from .models import X" -> "./models") so they resolve the
// same way as script specifiers.
type PythonExtractor struct{}

func (PythonExtractor) SupportedExtensions() []string {
	return []string{".py"}
}

func (PythonExtractor) ExtractImports(content string) []string {
	type pyHit struct {
		pos  int
		vals []string
	}
	var hits []pyHit
	for _, loc := range rePyImport.FindAllStringSubmatchIndex(content, -1) {
		var vals []string
		for _, part := range strings.Split(content[loc[2]:loc[3]], ",") {
			name := stripAlias(part)
			if name != "" {
				vals = append(vals, name)
			}
		}
		hits = append(hits, pyHit{pos: loc[0], vals: vals})
	}
	for _, loc := range rePyFromImport.FindAllStringSubmatchIndex(content, -1) {
		module := content[loc[2]:loc[3]]
		names := content[loc[4]:loc[5]]
		hits = append(hits, pyHit{pos: loc[0], vals: fromImportSpecifiers(module, names)})
	}
	// Both patterns are anchored at line starts, so positions never tie.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	var out []string
	for _, h := range hits {
		out = append(out, h.vals...)
	}
	return out
}

func (PythonExtractor) ExtractExports(content string) []string {
	if m := rePyAll.FindStringSubmatch(content); m != nil {
		var out []string
		for _, q := range rePyQuoted.FindAllStringSubmatch(m[1], -1) {
			out = append(out, q[1])
		}
		return out
	}
	var out []string
	for _, re := range []*regexp.Regexp{rePyDef, rePyClass, rePyAssign} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if strings.HasPrefix(m[1], "_") {
				continue
			}
			out = append(out, m[1])
		}
	}
	return out
}

func fromImportSpecifiers(module, names string) []string {
	dots := len(module) - len(strings.TrimLeft(module, "."))
	if dots == 0 {
		if module == "" {
			return nil
		}
		return []string{module}
	}
	prefix := "./"
	if dots > 1 {
		prefix = strings.Repeat("../", dots-1)
	}
	rest := strings.ReplaceAll(module[dots:], ".", "/")
	if rest != "" {
		return []string{prefix + rest}
	}
	// "from . import a, b" refers to sibling modules a and b.
	names = strings.Trim(strings.TrimSpace(names), "()")
	var out []string
	for _, part := range strings.Split(names, ",") {
		name := stripAlias(part)
		if name == "" || name == "*" {
			continue
		}
		out = append(out, prefix+name)
	}
	return out
}

func stripAlias(part string) string {
	part = strings.TrimSpace(part)
	if i := strings.Index(part, " as "); i >= 0 {
		part = part[:i]
	}
	part = strings.TrimSpace(strings.Trim(part, "()\\"))
	for _, r := range part {
		if !(r == '_' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return part
}
