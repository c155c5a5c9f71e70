package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"enzclass/domain/core"
	"enzclass/domain/label"
	"enzclass/domain/protein"
	"enzclass/internal"
	"enzclass/ports"
)

// Criteria define which candidate proteins are admitted to a dataset
type Criteria struct {
	MaxResolution float64 `json:"max_resolution"` // angstroms; ignored for predicted structures
	MinLength     int     `json:"min_length"`
	MaxLength     int     `json:"max_length"`
	RequireLabel  bool    `json:"require_label"`
}

// DefaultCriteria returns the project's standard selection criteria
func DefaultCriteria() Criteria {
	return Criteria{
		MaxResolution: 2.5,
		MinLength:     50,
		MaxLength:     300,
		RequireLabel:  true,
	}
}

// Evaluation is the cached outcome of screening one candidate
type Evaluation struct {
	ID            core.ProteinID `json:"id"`
	MeetsCriteria bool           `json:"meets_criteria"`
	Reason        string         `json:"reason,omitempty"`
	Resolution    float64        `json:"resolution,omitempty"`
	ChainLength   int            `json:"chain_length,omitempty"`
	Class         label.Class    `json:"class,omitempty"`
	EvaluatedAt   time.Time      `json:"evaluated_at"`
}

// Summary aggregates the registry state
type Summary struct {
	Evaluated int      `json:"evaluated"`
	Valid     int      `json:"valid"`
	Invalid   int      `json:"invalid"`
	Criteria  Criteria `json:"criteria"`
	File      string   `json:"file"`
}

// Registry screens candidate proteins against selection criteria and caches
// evaluations in a JSON registry file, so re-screening a known candidate
// never re-fetches its structure.
type Registry struct {
	path     string
	source   ports.DataSource
	analyzer ports.StructureAnalyzer
	labels   *label.Set
	criteria Criteria
	logger   *internal.Logger
	proteins map[core.ProteinID]Evaluation
}

// Load opens an existing registry file or starts an empty registry
func Load(path string, source ports.DataSource, analyzer ports.StructureAnalyzer, labels *label.Set, criteria Criteria) (*Registry, error) {
	r := &Registry{
		path:     path,
		source:   source,
		analyzer: analyzer,
		labels:   labels,
		criteria: criteria,
		logger:   internal.DefaultLogger,
		proteins: make(map[core.ProteinID]Evaluation),
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &r.proteins); err != nil {
		return nil, fmt.Errorf("malformed registry %s: %w", path, err)
	}
	return r, nil
}

// Add screens one candidate, returning a cached evaluation when present.
// Screening failures (unresolvable structure, failed analysis) are recorded
// as non-qualifying evaluations rather than errors so a long screening pass
// survives individual bad candidates.
func (r *Registry) Add(ctx context.Context, rawID string) (Evaluation, error) {
	id, err := core.ParseProteinID(rawID)
	if err != nil {
		return Evaluation{}, err
	}
	if ev, ok := r.proteins[id]; ok {
		return ev, nil
	}

	ev := r.evaluate(ctx, id)
	r.proteins[id] = ev
	return ev, nil
}

func (r *Registry) evaluate(ctx context.Context, id core.ProteinID) Evaluation {
	ev := Evaluation{ID: id, EvaluatedAt: time.Now().UTC()}

	rec, err := r.source.Resolve(ctx, id)
	if err != nil {
		ev.Reason = err.Error()
		return ev
	}
	structure, err := r.analyzer.Analyze(ctx, rec)
	if err != nil {
		ev.Reason = err.Error()
		return ev
	}

	ev.ChainLength = structure.Profile.ChainLength()
	ev.Resolution = structure.Profile.Resolution
	if class, ok := r.labels.Get(id); ok {
		ev.Class = class
	}

	switch {
	case rec.Provenance == protein.ProvenanceExperimental && r.criteria.MaxResolution > 0 &&
		(ev.Resolution <= 0 || ev.Resolution > r.criteria.MaxResolution):
		ev.Reason = fmt.Sprintf("resolution %.2f exceeds %.2f", ev.Resolution, r.criteria.MaxResolution)
	case ev.ChainLength < r.criteria.MinLength:
		ev.Reason = fmt.Sprintf("too short: %d < %d residues", ev.ChainLength, r.criteria.MinLength)
	case ev.ChainLength > r.criteria.MaxLength:
		ev.Reason = fmt.Sprintf("too long: %d > %d residues", ev.ChainLength, r.criteria.MaxLength)
	case r.criteria.RequireLabel && ev.Class == "":
		ev.Reason = "no EC class label"
	default:
		ev.MeetsCriteria = true
	}
	return ev
}

// Valid returns the qualifying evaluations in sorted ID order
func (r *Registry) Valid() []Evaluation {
	var out []Evaluation
	for _, ev := range r.proteins {
		if ev.MeetsCriteria {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidIDs returns the qualifying identifiers in sorted order, ready to
// feed a pipeline run.
func (r *Registry) ValidIDs() []string {
	valid := r.Valid()
	out := make([]string, len(valid))
	for i, ev := range valid {
		out[i] = ev.ID.String()
	}
	return out
}

// Save persists the registry file, creating parent directories as needed
func (r *Registry) Save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create registry dir: %w", err)
	}
	raw, err := json.MarshalIndent(r.proteins, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(r.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write registry %s: %w", r.path, err)
	}
	r.logger.Info("[Registry] saved %d evaluations to %s", len(r.proteins), r.path)
	return nil
}

// Summary reports registry totals
func (r *Registry) Summary() Summary {
	valid := len(r.Valid())
	return Summary{
		Evaluated: len(r.proteins),
		Valid:     valid,
		Invalid:   len(r.proteins) - valid,
		Criteria:  r.criteria,
		File:      r.path,
	}
}

// RecommendedStarterSet lists well-behaved structures for smoke-testing a
// freshly configured pipeline.
func RecommendedStarterSet() []string {
	return []string{
		"1lyz", // lysozyme
		"1tim", // triose phosphate isomerase
		"1crn", // crambin
		"1hrd", // glutamate dehydrogenase
		"1gox", // glycolate oxidase
		"1cax", // carbonic anhydrase
	}
}
