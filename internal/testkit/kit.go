package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"enzclass/domain/core"
	"enzclass/domain/protein"
	"enzclass/domain/run"
	"enzclass/ports"
)

// InMemorySource is a ports.DataSource backed by a fixture map. Unknown
// identifiers resolve to ErrNotFound; identifiers listed in Flaky fail with
// a retrieval error a configurable number of times before succeeding.
type InMemorySource struct {
	mu        sync.Mutex
	records   map[core.ProteinID]protein.StructureRecord
	failures  map[core.ProteinID]int
	calls     map[core.ProteinID]int
	sourceTag string
}

// NewInMemorySource creates an empty in-memory source
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{
		records:   make(map[core.ProteinID]protein.StructureRecord),
		failures:  make(map[core.ProteinID]int),
		calls:     make(map[core.ProteinID]int),
		sourceTag: "memory",
	}
}

// Put registers a fixture record
func (s *InMemorySource) Put(rec protein.StructureRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}

// FailTimes makes the next n resolutions of id fail with a retrieval error
func (s *InMemorySource) FailTimes(id core.ProteinID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = n
}

// Calls reports how many times id was resolved
func (s *InMemorySource) Calls(id core.ProteinID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func (s *InMemorySource) Name() string { return s.sourceTag }

func (s *InMemorySource) Provenance() protein.Provenance { return protein.ProvenanceExperimental }

func (s *InMemorySource) Resolve(_ context.Context, id core.ProteinID) (protein.StructureRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[id]++
	if s.failures[id] > 0 {
		s.failures[id]--
		return protein.StructureRecord{}, core.NewRetrievalError(s.sourceTag, id, fmt.Errorf("simulated outage"))
	}
	rec, ok := s.records[id]
	if !ok {
		return protein.StructureRecord{}, core.NewNotFoundError(s.sourceTag, id)
	}
	return rec, nil
}

// InMemoryAnalyzer is a ports.StructureAnalyzer backed by fixture profiles
type InMemoryAnalyzer struct {
	mu       sync.Mutex
	profiles map[core.ProteinID]*protein.StructuralProfile
}

// NewInMemoryAnalyzer creates an empty in-memory analyzer
func NewInMemoryAnalyzer() *InMemoryAnalyzer {
	return &InMemoryAnalyzer{profiles: make(map[core.ProteinID]*protein.StructuralProfile)}
}

// Put registers a fixture profile
func (a *InMemoryAnalyzer) Put(profile *protein.StructuralProfile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profiles[profile.ID] = profile
}

func (a *InMemoryAnalyzer) Analyze(_ context.Context, rec protein.StructureRecord) (*protein.Structure, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	profile, ok := a.profiles[rec.ID]
	if !ok {
		return nil, core.NewRetrievalError("memory", rec.ID, fmt.Errorf("no structural profile"))
	}
	return &protein.Structure{
		Record:   rec,
		Sequence: profile.Sequence(),
		Profile:  profile,
	}, nil
}

// InMemoryLedger is a ports.RunLedger that keeps run records in memory
type InMemoryLedger struct {
	mu   sync.Mutex
	runs map[core.RunID]*run.Record
}

// NewInMemoryLedger creates an empty in-memory ledger
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{runs: make(map[core.RunID]*run.Record)}
}

func (l *InMemoryLedger) StoreRun(_ context.Context, rec *run.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *rec
	l.runs[rec.ID] = &copied
	return nil
}

func (l *InMemoryLedger) GetRun(_ context.Context, id core.RunID) (*run.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", core.ErrNotFound, id)
	}
	copied := *rec
	return &copied, nil
}

func (l *InMemoryLedger) ListRuns(_ context.Context, limit int) ([]*run.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*run.Record, 0, len(l.runs))
	for _, rec := range l.runs {
		copied := *rec
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ ports.DataSource        = (*InMemorySource)(nil)
	_ ports.StructureAnalyzer = (*InMemoryAnalyzer)(nil)
	_ ports.RunLedger         = (*InMemoryLedger)(nil)
)
