// Package snapshot persists registry records so a project's registry can be
// rehydrated after a restart. Every backend is append-friendly: Append adds or
// replaces records, Load returns the latest record per path.
package snapshot

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// Store persists FileRecords per project.
type Store interface {
	Append(ctx context.Context, projectID string, records []types.FileRecord) error
	// Load returns the latest record per path ordered by Seq. An unknown
	// project yields no records and no error.
	Load(ctx context.Context, projectID string) ([]types.FileRecord, error)
}

var projectIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func normalizeProjectID(projectID string) (string, error) {
	id := strings.TrimSpace(projectID)
	if id == "" {
		return "", fmt.Errorf("project_id is required")
	}
	return id, nil
}

// fileSafeID maps a project id onto a single path element.
func fileSafeID(projectID string) string {
	id := projectIDSanitizer.ReplaceAllString(strings.TrimSpace(projectID), "_")
	if id == "" || id == "." || id == ".." {
		return "unknown"
	}
	return id
}

func checkRecords(records []types.FileRecord) error {
	for i, rec := range records {
		if strings.TrimSpace(rec.Path) == "" {
			return fmt.Errorf("record %d: path is required", i)
		}
	}
	return nil
}

// newer reports whether candidate should replace current. Records are
// replaced unless the candidate is strictly older.
func newer(candidate, current types.FileRecord) bool {
	return !candidate.CreatedAt.Before(current.CreatedAt)
}

// latestByPath folds records in append order into one record per path and
// orders the result by Seq, then path.
func latestByPath(records []types.FileRecord) []types.FileRecord {
	byPath := make(map[string]types.FileRecord, len(records))
	for _, rec := range records {
		if cur, ok := byPath[rec.Path]; ok && !newer(rec, cur) {
			continue
		}
		byPath[rec.Path] = rec
	}
	out := make([]types.FileRecord, 0, len(byPath))
	for _, rec := range byPath {
		out = append(out, rec.Clone())
	}
	sortRecords(out)
	return out
}

func sortRecords(records []types.FileRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Seq != records[j].Seq {
			return records[i].Seq < records[j].Seq
		}
		return records[i].Path < records[j].Path
	})
}
