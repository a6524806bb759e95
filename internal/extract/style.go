package extract

import "regexp"

var (
	reStyleImport = regexp.MustCompile(`@import\s+(?:url\(\s*)?['"]([^'"\n]+)['"]`)
	reStyleUse    = regexp.MustCompile(`@(?:use|forward)\s+['"]([^'"\n]+)['"]`)
)

// StyleExtractor handles stylesheets. Stylesheets export nothing.
type StyleExtractor struct{}

func (StyleExtractor) SupportedExtensions() []string {
	return []string{".css", ".scss", ".sass", ".less"}
}

func (StyleExtractor) ExtractImports(content string) []string {
	return collectOrdered(reBlockComment.ReplaceAllString(content, ""), reStyleImport, reStyleUse)
}

func (StyleExtractor) ExtractExports(string) []string {
	return nil
}
