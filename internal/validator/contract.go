package validator

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// handlerSegments mark a path as holding request handlers.
var handlerSegments = setOf(
	"routes", "route", "routers", "router",
	"handlers", "handler", "controllers", "controller",
	"api", "endpoints",
)

var handlerRoleWords = []string{"route", "handler", "controller", "api"}

var reSeparatorRun = regexp.MustCompile(`[-_]+`)

// ValidateInternalConsistency reports request and response schemas that name
// no data model in the contract.
func ValidateInternalConsistency(c types.Contract) []types.ValidationIssue {
	models := make(map[string]types.DataModel, len(c.DataModels))
	for _, m := range c.DataModels {
		models[m.Name] = m
	}

	var issues []types.ValidationIssue
	for _, ep := range c.APIEndpoints {
		reported := make(map[string]struct{}, 2)
		for _, name := range []string{ep.RequestSchema, ep.ResponseSchema} {
			if name == "" {
				continue
			}
			if _, ok := models[name]; ok {
				continue
			}
			if _, ok := reported[name]; ok {
				continue
			}
			reported[name] = struct{}{}
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityError,
				Category: types.CategoryUndefinedModelReference,
				Target:   name,
				Message:  fmt.Sprintf("endpoint %s references undefined model %q", ep.Path, name),
			})
		}
	}
	return issues
}

// ValidateAgainstBlueprint reports directory roles that no planned path falls
// under. Structural conventions are advisory, so these are warnings.
func ValidateAgainstBlueprint(c types.Contract, plannedPaths []string) []types.ValidationIssue {
	var issues []types.ValidationIssue
	for _, role := range c.FileStructure {
		prefix := cleanRel(role.Path)
		matched := false
		for _, p := range plannedPaths {
			if underPrefix(cleanRel(p), prefix) {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		issues = append(issues, types.ValidationIssue{
			Severity: types.SeverityWarning,
			Category: types.CategoryStructureMismatch,
			Target:   role.Path,
			Message:  fmt.Sprintf("no planned file falls under %s (%s)", role.Path, role.Role),
		})
	}
	return issues
}

// ValidateImplementation looks for a registered handler file per endpoint.
// A handler file lives under a routes/handlers/controllers-style directory or
// under a file_structure role named for them; it implements an endpoint when
// its file name contains the endpoint's last non-parameter segment.
//
// This is a naming heuristic. Projects with unconventional file names will
// see false negatives, which is why a miss is only a warning.
func ValidateImplementation(c types.Contract, reg *registry.Registry) []types.ValidationIssue {
	var handlers []string
	for _, p := range reg.Paths() {
		if isHandlerPath(p, c.FileStructure) {
			handlers = append(handlers, normalizeName(stem(p)))
		}
	}

	var issues []types.ValidationIssue
	for _, ep := range c.APIEndpoints {
		if implemented(endpointKey(ep.Path), handlers) {
			continue
		}
		issues = append(issues, types.ValidationIssue{
			Severity: types.SeverityWarning,
			Category: types.CategoryMissingImplementation,
			Target:   ep.Path,
			Message:  fmt.Sprintf("no registered handler appears to implement endpoint %s", ep.Path),
		})
	}
	return issues
}

// Overall runs every contract check. The contract is valid when none of them
// produced an error; warnings never block.
func Overall(c types.Contract, reg *registry.Registry, plannedPaths []string) (bool, []types.ValidationIssue) {
	var issues []types.ValidationIssue
	issues = append(issues, ValidateInternalConsistency(c)...)
	issues = append(issues, ValidateAgainstBlueprint(c, plannedPaths)...)
	issues = append(issues, ValidateImplementation(c, reg)...)
	return !types.HasBlocking(issues), issues
}

func implemented(key string, handlers []string) bool {
	if key == "" {
		return len(handlers) > 0
	}
	for _, h := range handlers {
		if strings.Contains(h, key) {
			return true
		}
	}
	return false
}

// endpointKey returns the last URL segment that is not a path parameter,
// normalized for comparison with file names.
func endpointKey(urlPath string) string {
	if i := strings.IndexAny(urlPath, "?#"); i >= 0 {
		urlPath = urlPath[:i]
	}
	segments := strings.Split(urlPath, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" || isParam(seg) {
			continue
		}
		return normalizeName(seg)
	}
	return ""
}

func isParam(seg string) bool {
	switch seg[0] {
	case ':', '{', '<', '[', '*':
		return true
	}
	return false
}

func normalizeName(s string) string {
	return reSeparatorRun.ReplaceAllString(strings.ToLower(s), "_")
}

func isHandlerPath(p string, roles types.FileStructure) bool {
	p = cleanRel(p)
	dir := path.Dir(p)
	if dir != "." {
		for _, seg := range strings.Split(dir, "/") {
			if _, ok := handlerSegments[strings.ToLower(seg)]; ok {
				return true
			}
		}
	}
	if _, ok := handlerSegments[strings.ToLower(stem(p))]; ok {
		return true
	}
	for _, role := range roles {
		if isHandlerRole(role.Role) && underPrefix(p, cleanRel(role.Path)) {
			return true
		}
	}
	return false
}

func isHandlerRole(name string) bool {
	name = strings.ToLower(name)
	for _, w := range handlerRoleWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

func underPrefix(p, prefix string) bool {
	if prefix == "" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// cleanRel normalizes p to a project-relative path; the root is "".
func cleanRel(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
