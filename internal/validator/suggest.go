package validator

import (
	"fmt"
	"path"
	"strings"

	"github.com/agext/levenshtein"
)

// Suggestion threshold, as a fraction: a candidate qualifies when its
// similarity is at least minSimilarityNum/minSimilarityDen.
const (
	minSimilarityNum = 3
	minSimilarityDen = 5
)

// Suggest returns a "did you mean" hint for a specifier that failed to
// resolve, or "" when no registered path is close enough.
//
// The last segment of the specifier and of each path are reduced to their
// stems and compared case-sensitively by normalized Levenshtein similarity
// (1 - distance/max length). The best candidate at or above 0.6 wins; ties go
// to the earliest path. This is a heuristic and will miss renamed files.
func Suggest(specifier string, paths []string) string {
	best, ok := bestMatch(stem(specifier), paths)
	if !ok {
		return ""
	}
	return fmt.Sprintf("did you mean %q?", best)
}

func bestMatch(target string, paths []string) (string, bool) {
	if target == "" {
		return "", false
	}
	var (
		bestPath       string
		bestDist       int
		bestLen        int
		found          bool
		targetRuneSize = len([]rune(target))
	)
	for _, p := range paths {
		candidate := stem(p)
		if candidate == "" {
			continue
		}
		maxLen := targetRuneSize
		if n := len([]rune(candidate)); n > maxLen {
			maxLen = n
		}
		dist := levenshtein.Distance(target, candidate, nil)
		// similarity >= 3/5  <=>  1 - dist/maxLen >= 3/5  <=>  5*dist <= 2*maxLen
		if minSimilarityDen*dist > (minSimilarityDen-minSimilarityNum)*maxLen {
			continue
		}
		// dist/maxLen < bestDist/bestLen, compared without division.
		if !found || dist*bestLen < bestDist*maxLen {
			bestPath, bestDist, bestLen, found = p, dist, maxLen, true
		}
	}
	return bestPath, found
}

// stem returns the last path segment without its extension.
func stem(p string) string {
	p = strings.TrimRight(stripQuery(p), "/")
	base := path.Base(p)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = base[:len(base)-len(ext)]
	}
	return base
}

func stripQuery(spec string) string {
	if i := strings.IndexAny(spec, "?#"); i >= 0 {
		return spec[:i]
	}
	return spec
}
