// Package registry keeps one record per generated file and answers the
// reference-resolution questions the validators ask about them.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/extract"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

type extraction struct {
	imports []string
	exports []string
}

// Registry owns every FileRecord. It is safe for concurrent use; concurrent
// registrations of the same path are serialized and the last writer wins.
type Registry struct {
	mu      sync.RWMutex
	opts    Options
	records map[string]*types.FileRecord
	order   []string
	nextSeq uint64
	lastAt  time.Time

	extractors *extract.Registry
	memo       *lru.Cache[string, extraction]
	now        func() time.Time
}

// New builds an empty registry. A nil extractor registry means no file has
// discoverable symbols.
func New(extractors *extract.Registry, opts Options) *Registry {
	opts = opts.withDefaults()
	memo, err := lru.New[string, extraction](opts.CacheSize)
	if err != nil {
		memo = nil
	}
	return &Registry{
		opts:       opts,
		records:    make(map[string]*types.FileRecord),
		nextSeq:    1,
		extractors: extractors,
		memo:       memo,
		now:        time.Now,
	}
}

// Options returns the resolution options the registry was built with.
func (r *Registry) Options() Options {
	return r.opts
}

// Register records p with the given content, replacing any prior record and
// all of its derived data. A file whose extension has no extractor is simply
// a file with no imports or exports. Paths that are empty, absolute or escape
// the project root are rejected with ErrInvalidPath and nothing is stored.
func (r *Registry) Register(p, content, description, createdBy string, declaredDeps []string) (types.FileRecord, error) {
	p, err := CleanPath(p)
	if err != nil {
		return types.FileRecord{}, err
	}
	hash := ContentHash(content)
	ex := r.extract(p, hash, content)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &types.FileRecord{
		Path:                 p,
		Description:          description,
		CreatedBy:            createdBy,
		CreatedAt:            r.tickLocked(),
		ContentHash:          hash,
		DeclaredDependencies: append([]string(nil), declaredDeps...),
		Imports:              append([]string(nil), ex.imports...),
		Exports:              append([]string(nil), ex.exports...),
	}
	if prev, ok := r.records[p]; ok {
		rec.Seq = prev.Seq
	} else {
		rec.Seq = r.nextSeq
		r.nextSeq++
		r.order = append(r.order, p)
	}
	r.records[p] = rec
	return rec.Clone(), nil
}

// Get returns a copy of the record at p.
func (r *Registry) Get(p string) (types.FileRecord, bool) {
	p = normalize(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[p]
	if !ok {
		return types.FileRecord{}, false
	}
	return rec.Clone(), true
}

// Has reports whether p is registered.
func (r *Registry) Has(p string) bool {
	p = normalize(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[p]
	return ok
}

// All returns copies of every record in registration order.
func (r *Registry) All() []types.FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.FileRecord, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.records[p].Clone())
	}
	return out
}

// Paths returns every registered path in registration order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot is All under the name used by the persistence layer.
func (r *Registry) Snapshot() []types.FileRecord {
	return r.All()
}

// Restore replaces the registry contents with records, ordered by Seq.
// Records with an empty path are dropped; for duplicate paths the one with
// the latest CreatedAt wins.
func (r *Registry) Restore(records []types.FileRecord) {
	latest := make(map[string]types.FileRecord, len(records))
	for _, rec := range records {
		p, err := CleanPath(rec.Path)
		if err != nil {
			log.Printf("Registry: dropping restored record: %v", err)
			continue
		}
		rec.Path = p
		if prev, ok := latest[p]; ok && prev.CreatedAt.After(rec.CreatedAt) {
			continue
		}
		latest[p] = rec.Clone()
	}
	sorted := make([]types.FileRecord, 0, len(latest))
	for _, rec := range latest {
		sorted = append(sorted, rec)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Seq != sorted[j].Seq {
			return sorted[i].Seq < sorted[j].Seq
		}
		return sorted[i].Path < sorted[j].Path
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]*types.FileRecord, len(sorted))
	r.order = r.order[:0]
	r.nextSeq = 1
	r.lastAt = time.Time{}
	for i := range sorted {
		rec := sorted[i]
		if rec.Seq == 0 || rec.Seq < r.nextSeq {
			rec.Seq = r.nextSeq
		}
		r.nextSeq = rec.Seq + 1
		if rec.CreatedAt.After(r.lastAt) {
			r.lastAt = rec.CreatedAt
		}
		r.records[rec.Path] = &rec
		r.order = append(r.order, rec.Path)
	}
}

// ContentHash is the fixed-width digest stored on every record.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (r *Registry) extract(p, hash, content string) extraction {
	if r.extractors == nil {
		return extraction{}
	}
	key := strings.ToLower(path.Ext(p)) + "|" + strconv.FormatUint(r.extractors.Version(), 10) + "|" + hash
	if r.memo != nil {
		if ex, ok := r.memo.Get(key); ok {
			return ex
		}
	}
	imports, exports := r.extractors.Extract(p, content)
	ex := extraction{imports: imports, exports: exports}
	if r.memo != nil {
		r.memo.Add(key, ex)
	}
	return ex
}

// tickLocked returns a timestamp strictly after the previous one so that
// created_at stays monotonic even across wall-clock adjustments.
func (r *Registry) tickLocked() time.Time {
	now := r.now()
	if !now.After(r.lastAt) {
		now = r.lastAt.Add(time.Nanosecond)
	}
	r.lastAt = now
	return now
}
