package snapshot

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

type CacheConfig struct {
	LoadTTL        time.Duration
	LoadMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		LoadTTL:        5 * time.Minute,
		LoadMaxEntries: 64,
	}
}

type MetricsSnapshot struct {
	LoadHits       uint64
	LoadMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	loadHits       atomic.Uint64
	loadMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		LoadHits:       m.loadHits.Load(),
		LoadMisses:     m.loadMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore caches Load results of an origin store per project. Append
// writes through and drops the project's cached snapshot.
type CachedStore struct {
	origin    Store
	loadCache *expirable.LRU[string, []types.FileRecord]
	metrics   Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.LoadTTL <= 0 {
		cfg.LoadTTL = def.LoadTTL
	}
	if cfg.LoadMaxEntries <= 0 {
		cfg.LoadMaxEntries = def.LoadMaxEntries
	}
	return &CachedStore{
		origin:    origin,
		loadCache: expirable.NewLRU[string, []types.FileRecord](cfg.LoadMaxEntries, nil, cfg.LoadTTL),
	}
}

func (s *CachedStore) Append(ctx context.Context, projectID string, records []types.FileRecord) error {
	s.metrics.originWrites.Add(1)
	err := s.origin.Append(ctx, projectID, records)
	// A failed append may still have written part of the batch.
	s.loadCache.Remove(strings.TrimSpace(projectID))
	if err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	return nil
}

func (s *CachedStore) Load(ctx context.Context, projectID string) ([]types.FileRecord, error) {
	key := strings.TrimSpace(projectID)
	if cached, ok := s.loadCache.Get(key); ok {
		s.metrics.loadHits.Add(1)
		return cloneRecords(cached), nil
	}
	s.metrics.loadMisses.Add(1)
	s.metrics.originReads.Add(1)

	records, err := s.origin.Load(ctx, projectID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.loadCache.Add(key, cloneRecords(records))
	return records, nil
}

// Unwrap returns the origin store.
func (s *CachedStore) Unwrap() Store {
	return s.origin
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func cloneRecords(in []types.FileRecord) []types.FileRecord {
	if in == nil {
		return nil
	}
	out := make([]types.FileRecord, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}
