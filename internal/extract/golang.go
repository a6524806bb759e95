package extract

import (
	"regexp"
	"strings"
)

var (
	reGoImportLine  = regexp.MustCompile(`(?m)^import[ \t]+(?:[\w.]+[ \t]+)?"([^"\n]+)"`)
	reGoImportBlock = regexp.MustCompile(`(?ms)^import[ \t]*\((.*?)^\)`)
	reGoQuoted      = regexp.MustCompile(`"([^"\n]+)"`)
	reGoFunc        = regexp.MustCompile(`(?m)^func[ \t]+([A-Z]\w*)`)
	reGoDecl        = regexp.MustCompile(`(?m)^(?:type|var|const)[ \t]+([A-Z]\w*)`)
	reGoGroup       = regexp.MustCompile(`(?ms)^(?:type|var|const)[ \t]*\((.*?)^\)`)
	reGoGroupName   = regexp.MustCompile(`(?m)^[ \t]+([A-Z]\w*)\b`)
)

// GoExtractor handles Go files. Import paths are never relative in Go, so
// every import is treated as a package reference. Only package-level
// identifiers are exported; methods are not.
type GoExtractor struct{}

func (GoExtractor) SupportedExtensions() []string {
	return []string{".go"}
}

func (GoExtractor) ExtractImports(content string) []string {
	src := stripJSComments(content)
	var hits []hit
	for _, loc := range reGoImportLine.FindAllStringSubmatchIndex(src, -1) {
		hits = append(hits, hit{pos: loc[2], val: src[loc[2]:loc[3]]})
	}
	for _, loc := range reGoImportBlock.FindAllStringSubmatchIndex(src, -1) {
		block := src[loc[2]:loc[3]]
		for _, q := range reGoQuoted.FindAllStringSubmatchIndex(block, -1) {
			hits = append(hits, hit{pos: loc[2] + q[2], val: block[q[2]:q[3]]})
		}
	}
	sortHits(hits)
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.val)
	}
	return out
}

func (GoExtractor) ExtractExports(content string) []string {
	src := stripJSComments(content)
	var out []string
	for _, m := range reGoFunc.FindAllStringSubmatch(src, -1) {
		out = append(out, m[1])
	}
	for _, m := range reGoDecl.FindAllStringSubmatch(src, -1) {
		out = append(out, m[1])
	}
	for _, g := range reGoGroup.FindAllStringSubmatch(src, -1) {
		for _, m := range reGoGroupName.FindAllStringSubmatch(g[1], -1) {
			if strings.TrimSpace(m[1]) != "" {
				out = append(out, m[1])
			}
		}
	}
	return out
}

func sortHits(hits []hit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}
