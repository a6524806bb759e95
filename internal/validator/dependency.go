// Package validator checks that registered files reference each other
// consistently and that they honor the project contract. Findings are
// returned as issue slices; validators never mutate the registry.
package validator

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// DependencyValidator checks imports and declared dependencies against a
// borrowed registry.
type DependencyValidator struct {
	reg *registry.Registry
}

func NewDependencyValidator(reg *registry.Registry) *DependencyValidator {
	return &DependencyValidator{reg: reg}
}

// ValidateFile reports every local import of rec that does not resolve to a
// registered file. Bare package imports are left to the package check.
func (v *DependencyValidator) ValidateFile(p string, rec types.FileRecord) []types.ValidationIssue {
	var issues []types.ValidationIssue
	var paths []string
	for _, spec := range rec.Imports {
		if !v.reg.IsLocalSpecifier(spec) || v.reg.ResolveRelative(p, spec) {
			continue
		}
		if paths == nil {
			paths = v.candidates(p)
		}
		issues = append(issues, types.ValidationIssue{
			Severity:   types.SeverityError,
			Category:   types.CategoryMissingFile,
			SourceFile: p,
			Target:     spec,
			Message:    fmt.Sprintf("import %q does not resolve to any registered file", spec),
			Suggestion: Suggest(spec, paths),
		})
	}
	return issues
}

// ValidateAll runs the file checks over every record in registration order.
// Declared dependencies that name no registered file are reported as
// dangling after that file's import issues.
func (v *DependencyValidator) ValidateAll() []types.ValidationIssue {
	var issues []types.ValidationIssue
	for _, rec := range v.reg.All() {
		issues = append(issues, v.validateRecord(rec)...)
	}
	return issues
}

// ValidateAllParallel is ValidateAll fanned out over at most workers
// goroutines. The result is identical to ValidateAll.
func (v *DependencyValidator) ValidateAllParallel(ctx context.Context, workers int) ([]types.ValidationIssue, error) {
	records := v.reg.All()
	slots := make([][]types.ValidationIssue, len(records))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = v.validateRecord(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate dependencies: %w", err)
	}

	var issues []types.ValidationIssue
	for _, s := range slots {
		issues = append(issues, s...)
	}
	return issues, nil
}

func (v *DependencyValidator) validateRecord(rec types.FileRecord) []types.ValidationIssue {
	issues := v.ValidateFile(rec.Path, rec)
	return append(issues, v.danglingReferences(rec)...)
}

func (v *DependencyValidator) danglingReferences(rec types.FileRecord) []types.ValidationIssue {
	var issues []types.ValidationIssue
	for _, dep := range rec.DeclaredDependencies {
		if !v.projectRef(dep) || v.declaredResolves(rec.Path, dep) {
			continue
		}
		issues = append(issues, types.ValidationIssue{
			Severity:   types.SeverityWarning,
			Category:   types.CategoryDanglingReference,
			SourceFile: rec.Path,
			Target:     dep,
			Message:    fmt.Sprintf("declared dependency %q is not registered", dep),
			Suggestion: Suggest(dep, v.candidates(rec.Path)),
		})
	}
	return issues
}

// candidates lists the registered paths a file's broken reference may be
// pointed at; the file itself is never one of them.
func (v *DependencyValidator) candidates(self string) []string {
	all := v.reg.Paths()
	out := make([]string, 0, len(all))
	for _, p := range all {
		if p != self {
			out = append(out, p)
		}
	}
	return out
}

func (v *DependencyValidator) declaredResolves(from, dep string) bool {
	if v.reg.IsLocalSpecifier(dep) {
		_, ok := v.reg.Lookup(from, dep)
		return ok
	}
	_, ok := v.reg.LookupPath(dep)
	return ok
}

// projectRef reports whether a declared dependency or planned dependency
// names a project file rather than an external package.
func (v *DependencyValidator) projectRef(dep string) bool {
	if v.reg.IsLocalSpecifier(dep) {
		return true
	}
	if dep == "" || strings.HasPrefix(dep, "@") || strings.HasPrefix(dep, "node:") {
		return false
	}
	return strings.Contains(dep, "/") || path.Ext(stripQuery(dep)) != ""
}

// ValidatePackageDependencies reports each bare import that is neither
// declared nor a submodule of a declared package. Runtime builtins and
// node: specifiers are skipped. Each import is reported once.
func ValidatePackageDependencies(declared, usedImports []string) []types.ValidationIssue {
	set := setOf(declared...)
	var issues []types.ValidationIssue
	seen := make(map[string]struct{})
	for _, imp := range usedImports {
		if isLocal(imp) || isBuiltin(imp, sourceUnknown) || isDeclared(set, imp, false) {
			continue
		}
		if _, ok := seen[imp]; ok {
			continue
		}
		seen[imp] = struct{}{}
		issues = append(issues, undeclared("", imp))
	}
	return issues
}

// ValidateRegisteredPackages is ValidatePackageDependencies over the imports
// of every registered file, attributing each issue to the first file that
// uses the package.
func (v *DependencyValidator) ValidateRegisteredPackages(declared []string) []types.ValidationIssue {
	set := setOf(declared...)
	var issues []types.ValidationIssue
	seen := make(map[string]struct{})
	for _, rec := range v.reg.All() {
		kind := sourceKindOf(rec.Path)
		for _, imp := range rec.Imports {
			if v.reg.IsLocalSpecifier(imp) || isBuiltin(imp, kind) || isDeclared(set, imp, kind == sourcePython) {
				continue
			}
			if _, ok := seen[imp]; ok {
				continue
			}
			seen[imp] = struct{}{}
			issues = append(issues, undeclared(rec.Path, imp))
		}
	}
	return issues
}

// ExternalImports lists the bare imports of every registered file, in
// registration order and without duplicates.
func (v *DependencyValidator) ExternalImports() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, rec := range v.reg.All() {
		for _, imp := range rec.Imports {
			if v.reg.IsLocalSpecifier(imp) {
				continue
			}
			if _, ok := seen[imp]; ok {
				continue
			}
			seen[imp] = struct{}{}
			out = append(out, imp)
		}
	}
	return out
}

func isLocal(spec string) bool {
	return strings.HasPrefix(spec, ".")
}

// isDeclared matches imp against declared names, treating anything below a
// declared name, up to the next "/", as a submodule of it. Dotted module
// paths ("fastapi.responses") are submodules only when dotted is set; in npm
// "lodash.debounce" is its own package.
func isDeclared(declared map[string]struct{}, imp string, dotted bool) bool {
	if _, ok := declared[imp]; ok {
		return true
	}
	for i := 0; i < len(imp); i++ {
		if imp[i] != '/' && !(dotted && imp[i] == '.') {
			continue
		}
		if _, ok := declared[imp[:i]]; ok {
			return true
		}
	}
	return false
}

func undeclared(source, imp string) types.ValidationIssue {
	return types.ValidationIssue{
		Severity:   types.SeverityWarning,
		Category:   types.CategoryUndeclaredPackage,
		SourceFile: source,
		Target:     imp,
		Message:    fmt.Sprintf("package %q is imported but not declared", imp),
	}
}

// ValidateBeforeGeneration checks a plan before any of its files exist. Every
// project-local dependency of a planned file must match, by filename stem,
// some planned or already known path. Misses are warnings because the plan
// may still change.
func (v *DependencyValidator) ValidateBeforeGeneration(plan types.Plan, knownPaths []string) []types.ValidationIssue {
	planned := plan.Paths()
	stems := make(map[string]struct{}, len(planned)+len(knownPaths))
	for _, list := range [][]string{planned, knownPaths} {
		for _, p := range list {
			s := stem(p)
			stems[s] = struct{}{}
			if v.isIndexStem(s) {
				stems[stem(path.Dir(p))] = struct{}{}
			}
		}
	}

	var issues []types.ValidationIssue
	for _, f := range plan.Files {
		for _, dep := range f.Dependencies {
			if !v.projectRef(dep) {
				continue
			}
			if _, ok := stems[stem(dep)]; ok {
				continue
			}
			issues = append(issues, types.ValidationIssue{
				Severity:   types.SeverityWarning,
				Category:   types.CategoryMissingFile,
				SourceFile: f.Path,
				Target:     dep,
				Message:    fmt.Sprintf("planned dependency %q is not among the planned files", dep),
				Suggestion: Suggest(dep, planned),
			})
		}
	}
	return issues
}

func (v *DependencyValidator) isIndexStem(s string) bool {
	for _, name := range v.reg.Options().IndexNames {
		if s == name {
			return true
		}
	}
	return false
}
