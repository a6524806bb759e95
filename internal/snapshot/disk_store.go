package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// DiskStore keeps one append-only JSONL file per project under dir. Each line
// is one record; replay keeps the last record per path.
type DiskStore struct {
	dir string
	mu  sync.Mutex
}

func defaultSnapshotDir() string {
	return filepath.Join("tmp", "registry_snapshots")
}

func NewDiskStore(dir string) *DiskStore {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = defaultSnapshotDir()
	}
	return &DiskStore{dir: trimmed}
}

func (s *DiskStore) filePath(projectID string) string {
	return filepath.Join(s.dir, fileSafeID(projectID)+".jsonl")
}

func (s *DiskStore) Append(_ context.Context, projectID string, records []types.FileRecord) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return err
	}
	if err := checkRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	var buf []byte
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.Path, err)
		}
		buf = append(buf, raw...)
		buf = append(buf, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.OpenFile(s.filePath(id), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	torn, err := endsMidLine(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("inspect snapshot file: %w", err)
	}
	if torn {
		// Terminate the torn line so the first new record starts clean.
		buf = append([]byte{'\n'}, buf...)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	return nil
}

// endsMidLine reports whether a non-empty file lacks a trailing newline,
// which is what an interrupted write leaves behind.
func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

func (s *DiskStore) Load(_ context.Context, projectID string) ([]types.FileRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.replay(id)
	if err != nil {
		return nil, err
	}
	return latestByPath(records), nil
}

// Compact rewrites the project's file so it holds one line per path. The new
// file replaces the old one atomically.
func (s *DiskStore) Compact(_ context.Context, projectID string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.replay(id)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	latest := latestByPath(records)

	target := s.filePath(id)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range latest {
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("encode record %s: %w", rec.Path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	log.Printf("Snapshot: compacted %s from %d to %d records", id, len(records), len(latest))
	return nil
}

// replay reads every line in append order. Undecodable lines, such as a
// torn final write, are skipped.
func (s *DiskStore) replay(projectID string) ([]types.FileRecord, error) {
	f, err := os.Open(s.filePath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	out := make([]types.FileRecord, 0, 64)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec types.FileRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Path == "" {
			log.Printf("Snapshot: skipping unreadable line in %s", projectID)
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return out, nil
}
