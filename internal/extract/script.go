package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	reLineComment  = regexp.MustCompile(`(?m)^[ \t]*//.*$`)
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

	reJSImportFrom   = regexp.MustCompile(`\bimport\s+(?:type\s+)?[\w$*\s{},]+?\s+from\s*['"]([^'"\n]+)['"]`)
	reJSImportBare   = regexp.MustCompile(`\bimport\s*['"]([^'"\n]+)['"]`)
	reJSImportDyn    = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
	reJSRequire      = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
	reJSExportFrom   = regexp.MustCompile(`\bexport\s+(?:type\s+)?(?:\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s*from\s*['"]([^'"\n]+)['"]`)
	reJSExportDecl   = regexp.MustCompile(`\bexport\s+(?:declare\s+)?(?:async\s+)?(?:abstract\s+)?(?:const|let|var|function\*?|class|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)
	reJSExportDef    = regexp.MustCompile(`\bexport\s+default\b`)
	reJSExportList   = regexp.MustCompile(`\bexport\s+(?:type\s+)?\{([^}]*)\}`)
	reCJSModule      = regexp.MustCompile(`\bmodule\.exports\s*=`)
	reCJSModuleObj   = regexp.MustCompile(`\bmodule\.exports\s*=\s*\{([^}]*)\}`)
	reCJSNamedExport = regexp.MustCompile(`\b(?:module\.)?exports\.([A-Za-z_$][\w$]*)\s*=`)
)

// ScriptExtractor handles JavaScript-family sources, including single-file
// components whose script block is scanned as-is.
type ScriptExtractor struct{}

func (ScriptExtractor) SupportedExtensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".vue", ".svelte"}
}

func (ScriptExtractor) ExtractImports(content string) []string {
	src := stripJSComments(content)
	return collectOrdered(src,
		reJSImportFrom,
		reJSImportBare,
		reJSImportDyn,
		reJSRequire,
		reJSExportFrom,
	)
}

func (ScriptExtractor) ExtractExports(content string) []string {
	src := stripJSComments(content)
	var out []string
	for _, m := range reJSExportDecl.FindAllStringSubmatch(src, -1) {
		out = append(out, m[1])
	}
	if reJSExportDef.MatchString(src) {
		out = append(out, "default")
	}
	for _, m := range reJSExportList.FindAllStringSubmatch(src, -1) {
		out = append(out, splitExportList(m[1])...)
	}
	if m := reCJSModuleObj.FindStringSubmatch(src); m != nil {
		out = append(out, splitExportList(m[1])...)
	} else if reCJSModule.MatchString(src) {
		out = append(out, "default")
	}
	for _, m := range reCJSNamedExport.FindAllStringSubmatch(src, -1) {
		out = append(out, m[1])
	}
	return out
}

func stripJSComments(s string) string {
	s = reBlockComment.ReplaceAllString(s, "")
	return reLineComment.ReplaceAllString(s, "")
}

// splitExportList turns "a, b as c, type D" into [a c D].
func splitExportList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "type ")
		if part == "" {
			continue
		}
		if i := strings.Index(part, " as "); i >= 0 {
			part = strings.TrimSpace(part[i+len(" as "):])
		}
		if j := strings.IndexAny(part, ": \t\n"); j >= 0 {
			part = part[:j]
		}
		if isIdent(part) {
			out = append(out, part)
		}
	}
	return out
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

type hit struct {
	pos int
	val string
}

// collectOrdered gathers the first capture group of every pattern and returns
// the values in the order they appear in src.
func collectOrdered(src string, patterns ...*regexp.Regexp) []string {
	var hits []hit
	for _, re := range patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(src, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			hits = append(hits, hit{pos: loc[2], val: src[loc[2]:loc[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.val)
	}
	return out
}
