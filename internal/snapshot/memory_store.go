package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]types.FileRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]types.FileRecord),
	}
}

func (s *MemoryStore) Append(_ context.Context, projectID string, records []types.FileRecord) error {
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
	s.mu.Lock()
	defer s.mu.Unlock()
	project := s.data[id]
	if project == nil {
		project = make(map[string]types.FileRecord, len(records))
		s.data[id] = project
	}
	for _, rec := range records {
		if cur, ok := project[rec.Path]; ok && !newer(rec, cur) {
			continue
		}
		project[rec.Path] = rec.Clone()
	}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, projectID string) ([]types.FileRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.FileRecord, 0, len(s.data[id]))
	for _, rec := range s.data[id] {
		out = append(out, rec.Clone())
	}
	sortRecords(out)
	return out, nil
}
