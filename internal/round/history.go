package round

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/feedback"
)

var historyIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// History appends every round's feedback to a per-project JSONL file.
type History struct {
	dir string
	mu  sync.Mutex
}

func DefaultHistoryDir() string {
	return filepath.Join("tmp", "round_logs")
}

func NewHistory(dir string) *History {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = DefaultHistoryDir()
	}
	return &History{dir: trimmed}
}

func sanitizeProjectID(projectID string) string {
	id := historyIDSanitizer.ReplaceAllString(strings.TrimSpace(projectID), "_")
	if id == "" {
		return "unknown"
	}
	return id
}

func (h *History) filePath(projectID string) string {
	return filepath.Join(h.dir, sanitizeProjectID(projectID)+".jsonl")
}

// Append writes one feedback line for the project.
func (h *History) Append(projectID string, fb feedback.RoundFeedback) error {
	if h == nil {
		return nil
	}
	raw, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	raw = append(raw, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(h.filePath(projectID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(raw); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Read returns the project's feedback in the order it was recorded.
// Unparseable lines are skipped.
func (h *History) Read(projectID string) ([]feedback.RoundFeedback, error) {
	if h == nil {
		return nil, nil
	}
	f, err := os.Open(h.filePath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return []feedback.RoundFeedback{}, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	out := make([]feedback.RoundFeedback, 0, 16)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var fb feedback.RoundFeedback
		if err := json.Unmarshal([]byte(line), &fb); err != nil {
			continue
		}
		out = append(out, fb)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}
	return out, nil
}
