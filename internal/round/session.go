// Package round drives one project's validation across generation rounds:
// files are applied to the registry, the registry is checked against the
// contract, and the resulting feedback is returned while the registry is
// persisted to a snapshot store.
package round

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/feedback"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/metrics"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/snapshot"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/validator"
)

// ErrNoContract is returned by operations that need a registered contract.
var ErrNoContract = errors.New("no contract registered")

// RoundInput carries the per-round parameters of Validate.
type RoundInput struct {
	RequirementID string
	RoundIndex    int
	// DeclaredPackages enables package checks when non-nil.
	DeclaredPackages []string
	// PlannedPaths feed the blueprint check. Empty means the registered paths.
	PlannedPaths []string
	// Workers bounds parallel dependency validation. Zero means no limit.
	Workers int
}

type Session struct {
	projectID string
	reg       *registry.Registry
	deps      *validator.DependencyValidator
	store     snapshot.Store
	metrics   *metrics.Recorder
	history   *History

	mu       sync.RWMutex
	contract *types.Contract
	dirty    map[string]struct{}
}

// NewSession binds a registry to a project. store and rec may be nil, in
// which case nothing is persisted or recorded.
func NewSession(projectID string, reg *registry.Registry, store snapshot.Store, rec *metrics.Recorder) (*Session, error) {
	if projectID == "" {
		return nil, errors.New("project_id is required")
	}
	if reg == nil {
		return nil, errors.New("registry is nil")
	}
	return &Session{
		projectID: projectID,
		reg:       reg,
		deps:      validator.NewDependencyValidator(reg),
		store:     store,
		metrics:   rec,
		dirty:     map[string]struct{}{},
	}, nil
}

// WithHistory records every round's feedback in h.
func (s *Session) WithHistory(h *History) *Session {
	s.history = h
	return s
}

func (s *Session) ProjectID() string { return s.projectID }

func (s *Session) Registry() *registry.Registry { return s.reg }

// Restore replaces the registry contents with the project's snapshot.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	records, err := s.store.Load(ctx, s.projectID)
	if err != nil {
		return fmt.Errorf("restore %s: %w", s.projectID, err)
	}
	s.reg.Restore(records)
	s.mu.Lock()
	s.dirty = map[string]struct{}{}
	s.mu.Unlock()
	s.metrics.SetRegisteredFiles(s.reg.Len())
	log.Printf("Round: restored %d records for %s", len(records), s.projectID)
	return nil
}

// Apply registers every write. Paths are checked up front; one invalid path
// rejects the whole batch.
func (s *Session) Apply(ctx context.Context, writes []types.FileWrite) ([]types.FileRecord, error) {
	cleaned := make([]string, len(writes))
	for i, w := range writes {
		p, err := registry.CleanPath(w.Path)
		if err != nil {
			return nil, err
		}
		cleaned[i] = p
	}
	out := make([]types.FileRecord, 0, len(writes))
	for i, w := range writes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rec, err := s.reg.Register(cleaned[i], w.Content, w.Description, w.CreatedBy, w.DeclaredDependencies)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
		s.mu.Lock()
		s.dirty[rec.Path] = struct{}{}
		s.mu.Unlock()
	}
	s.metrics.SetRegisteredFiles(s.reg.Len())
	return out, nil
}

// SetContract replaces the current contract wholesale.
func (s *Session) SetContract(c types.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contract = &c
}

func (s *Session) Contract() (types.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.contract == nil {
		return types.Contract{}, ErrNoContract
	}
	return *s.contract, nil
}

// Validate checks the registry against the contract and returns the round's
// feedback. Records changed since the last persisted round are appended to
// the snapshot store before returning.
func (s *Session) Validate(ctx context.Context, in RoundInput) (feedback.RoundFeedback, error) {
	c, err := s.Contract()
	if err != nil {
		return feedback.RoundFeedback{}, err
	}
	start := time.Now()

	depIssues, err := s.deps.ValidateAllParallel(ctx, in.Workers)
	if err != nil {
		return feedback.RoundFeedback{}, err
	}
	if in.DeclaredPackages != nil {
		depIssues = append(depIssues, s.deps.ValidateRegisteredPackages(in.DeclaredPackages)...)
	}
	planned := in.PlannedPaths
	if len(planned) == 0 {
		planned = s.reg.Paths()
	}
	_, contractIssues := validator.Overall(c, s.reg, planned)

	fb := feedback.Build(in.RequirementID, in.RoundIndex, &c, depIssues, contractIssues)

	if err := s.persist(ctx); err != nil {
		return fb, err
	}

	if err := s.history.Append(s.projectID, fb); err != nil {
		log.Printf("Round: history append failed for %s: %v", s.projectID, err)
	}
	all := append(append([]types.ValidationIssue(nil), depIssues...), contractIssues...)
	s.metrics.ObserveRound(fb.IsSuccessful(), fb.ContractCompliance, all, time.Since(start))
	log.Printf("Round: %s round %d pass=%s critical=%d warnings=%d compliance=%.2f",
		in.RequirementID, in.RoundIndex, fb.PassID, len(fb.CriticalIssues), len(fb.Warnings), fb.ContractCompliance)
	return fb, nil
}

// Preflight checks a plan before any of its files are generated.
func (s *Session) Preflight(plan types.Plan) ([]types.ValidationIssue, error) {
	c, err := s.Contract()
	if err != nil {
		return nil, err
	}
	issues := s.deps.ValidateBeforeGeneration(plan, s.reg.Paths())
	issues = append(issues, validator.ValidateAgainstBlueprint(c, plan.Paths())...)
	return issues, nil
}

func (s *Session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	paths := make([]string, 0, len(s.dirty))
	for p := range s.dirty {
		paths = append(paths, p)
	}
	s.mu.Unlock()
	if len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)

	records := make([]types.FileRecord, 0, len(paths))
	for _, p := range paths {
		if rec, ok := s.reg.Get(p); ok {
			records = append(records, rec)
		}
	}
	if err := s.store.Append(ctx, s.projectID, records); err != nil {
		return fmt.Errorf("persist snapshot %s: %w", s.projectID, err)
	}

	s.mu.Lock()
	for _, p := range paths {
		delete(s.dirty, p)
	}
	s.mu.Unlock()
	return nil
}
