// Package feedback merges validator findings into the per-round report that
// is handed back to the generation step.
package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// RoundFeedback is built once per validation pass and never mutated.
type RoundFeedback struct {
	PassID             string                  `json:"pass_id"`
	RequirementID      string                  `json:"requirement_id"`
	RoundIndex         int                     `json:"round_index"`
	CreatedAt          time.Time               `json:"created_at"`
	CriticalIssues     []types.ValidationIssue `json:"critical_issues"`
	Warnings           []types.ValidationIssue `json:"warnings"`
	Suggestions        []string                `json:"suggestions"`
	ContractCompliance float64                 `json:"contract_compliance"`
	UnimplementedItems []string                `json:"unimplemented_items"`
}

// Build partitions the issues by severity. Dependency issues come before
// contract issues in every bucket. A nil contract, or one with no endpoints,
// is fully compliant.
func Build(requirementID string, roundIndex int, contract *types.Contract, dependencyIssues, contractIssues []types.ValidationIssue) RoundFeedback {
	fb := RoundFeedback{
		PassID:        uuid.NewString(),
		RequirementID: requirementID,
		RoundIndex:    roundIndex,
		CreatedAt:     time.Now().UTC(),
	}

	missing := make(map[string]struct{})
	all := make([]types.ValidationIssue, 0, len(dependencyIssues)+len(contractIssues))
	all = append(all, dependencyIssues...)
	all = append(all, contractIssues...)
	for _, is := range all {
		switch is.Severity {
		case types.SeverityError:
			fb.CriticalIssues = append(fb.CriticalIssues, is)
		case types.SeverityWarning:
			fb.Warnings = append(fb.Warnings, is)
		default:
			fb.Suggestions = append(fb.Suggestions, is.Message)
		}
		if is.Severity != types.SeverityInfo && is.Suggestion != "" {
			fb.Suggestions = append(fb.Suggestions, is.Suggestion)
		}
		if is.Category == types.CategoryMissingImplementation {
			if _, ok := missing[is.Target]; !ok {
				missing[is.Target] = struct{}{}
				fb.UnimplementedItems = append(fb.UnimplementedItems, is.Target)
			}
		}
	}

	fb.ContractCompliance = compliance(contract, missing)
	return fb
}

func compliance(contract *types.Contract, missing map[string]struct{}) float64 {
	if contract == nil || len(contract.APIEndpoints) == 0 {
		return 1.0
	}
	implemented := 0
	for _, ep := range contract.APIEndpoints {
		if _, ok := missing[ep.Path]; !ok {
			implemented++
		}
	}
	return float64(implemented) / float64(len(contract.APIEndpoints))
}

// IsSuccessful reports whether the round produced no blocking issue.
func (f RoundFeedback) IsSuccessful() bool {
	return len(f.CriticalIssues) == 0
}

// BuildFeedbackPrompt renders the report as plain text. Each section lists at
// most maxIssues entries, in bucket order, followed by a "... +N more" line
// when truncated. maxIssues <= 0 disables truncation.
func (f RoundFeedback) BuildFeedbackPrompt(maxIssues int) string {
	var b strings.Builder
	status := "PASSED"
	if !f.IsSuccessful() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Validation feedback for %s, round %d: %s\n", f.RequirementID, f.RoundIndex, status)
	fmt.Fprintf(&b, "Contract compliance: %.0f%%\n", f.ContractCompliance*100)

	writeSection(&b, "Critical issues", issueLines(f.CriticalIssues), maxIssues)
	writeSection(&b, "Warnings", issueLines(f.Warnings), maxIssues)
	writeSection(&b, "Suggestions", f.Suggestions, maxIssues)
	writeSection(&b, "Unimplemented items", f.UnimplementedItems, maxIssues)
	return b.String()
}

func issueLines(issues []types.ValidationIssue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.String())
	}
	return out
}

func writeSection(b *strings.Builder, title string, lines []string, max int) {
	fmt.Fprintf(b, "\n%s (%d):\n", title, len(lines))
	if len(lines) == 0 {
		b.WriteString("- none\n")
		return
	}
	shown := lines
	if max > 0 && len(lines) > max {
		shown = lines[:max]
	}
	for i, line := range shown {
		fmt.Fprintf(b, "%d. %s\n", i+1, line)
	}
	if rest := len(lines) - len(shown); rest > 0 {
		fmt.Fprintf(b, "... +%d more\n", rest)
	}
}
