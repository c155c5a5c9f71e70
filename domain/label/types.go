package label

import (
	"fmt"
	"sort"

	"enzclass/domain/core"
)

// Class is an EC (Enzyme Commission) top-level category describing
// catalytic function, e.g. "EC1" for oxidoreductases.
type Class string

// Set maps protein identifiers to their EC class. Loaded once per dataset
// and immutable afterwards.
type Set struct {
	byID map[core.ProteinID]Class
}

// Pair is one row of a label table
type Pair struct {
	ID    core.ProteinID
	Class Class
}

// NewSet builds a label set from table rows. Duplicate identifiers are a
// hard error because the ID is the join key for matrix/label alignment.
func NewSet(pairs []Pair) (*Set, error) {
	byID := make(map[core.ProteinID]Class, len(pairs))
	for _, p := range pairs {
		if p.ID.IsEmpty() {
			return nil, fmt.Errorf("label table contains an empty protein ID")
		}
		if p.Class == "" {
			return nil, fmt.Errorf("label table has no class for %s", p.ID)
		}
		if _, seen := byID[p.ID]; seen {
			return nil, fmt.Errorf("%w: %s appears twice in label table", core.ErrDuplicateID, p.ID)
		}
		byID[p.ID] = p.Class
	}
	return &Set{byID: byID}, nil
}

// Get returns the class for a protein
func (s *Set) Get(id core.ProteinID) (Class, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Has reports whether the protein is labeled
func (s *Set) Has(id core.ProteinID) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of labeled proteins
func (s *Set) Len() int { return len(s.byID) }

// IDs returns all labeled protein identifiers in sorted order
func (s *Set) IDs() []core.ProteinID {
	ids := make([]core.ProteinID, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Classes returns the distinct classes present, sorted
func (s *Set) Classes() []Class {
	seen := make(map[Class]bool)
	var out []Class
	for _, c := range s.byID {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Align returns the class vector for the given row order. Every ID must be
// labeled; assembly guarantees this, so a miss here is an alignment bug.
func (s *Set) Align(rows []core.ProteinID) ([]Class, error) {
	out := make([]Class, len(rows))
	for i, id := range rows {
		c, ok := s.byID[id]
		if !ok {
			return nil, core.NewAssemblyError(id, "", "row has no label")
		}
		out[i] = c
	}
	return out, nil
}

// DistinctClasses counts the distinct classes in a class vector
func DistinctClasses(classes []Class) int {
	seen := make(map[Class]bool)
	for _, c := range classes {
		seen[c] = true
	}
	return len(seen)
}
