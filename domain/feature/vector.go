package feature

import (
	"fmt"
	"math"

	"enzclass/domain/core"
)

// Vector is one extractor's output for one protein: an ordered mapping from
// feature name to numeric value. For a fixed extractor configuration the
// name set and order is identical across all proteins (fixed schema).
type Vector struct {
	ID        core.ProteinID `json:"id"`
	Extractor string         `json:"extractor"`
	Names     []string       `json:"names"`
	Values    []float64      `json:"values"`
}

// NewVector builds and validates a feature vector
func NewVector(id core.ProteinID, extractor string, names []string, values []float64) (Vector, error) {
	v := Vector{ID: id, Extractor: extractor, Names: names, Values: values}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// Validate checks name/value arity and rejects non-finite cells
func (v Vector) Validate() error {
	if v.Extractor == "" {
		return fmt.Errorf("vector for %s has no extractor tag", v.ID)
	}
	if len(v.Names) == 0 {
		return fmt.Errorf("vector for %s from %s is empty", v.ID, v.Extractor)
	}
	if len(v.Names) != len(v.Values) {
		return fmt.Errorf("vector for %s from %s has %d names but %d values",
			v.ID, v.Extractor, len(v.Names), len(v.Values))
	}
	for i, val := range v.Values {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("vector for %s from %s has non-finite value at %s",
				v.ID, v.Extractor, v.Names[i])
		}
	}
	return nil
}

// Len returns the number of features
func (v Vector) Len() int { return len(v.Values) }

// QualifiedNames returns column names namespaced by the producing extractor
// so two extractors reusing a feature name can never collide in a matrix.
func (v Vector) QualifiedNames() []string {
	return QualifyNames(v.Extractor, v.Names)
}

// QualifyNames prefixes each feature name with the extractor identity
func QualifyNames(extractor string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = extractor + "." + n
	}
	return out
}

// SchemaEquals reports whether two name lists match by name and order
func SchemaEquals(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
