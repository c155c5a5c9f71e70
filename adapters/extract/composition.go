package extract

import (
	"strings"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/protein"
)

// NameComposition identifies the amino acid composition extractor
const NameComposition = "aa_composition"

// Composition is a sequence-family extractor producing the 20 standard
// amino acid composition fractions. The fractions always sum to 1.0 within
// floating tolerance and the vector size is independent of chain length.
type Composition struct{}

// NewComposition creates a composition extractor
func NewComposition() *Composition {
	return &Composition{}
}

// Name returns the extractor identity used to qualify column names
func (c *Composition) Name() string { return NameComposition }

// FeatureNames returns the fixed column schema, one fraction per standard
// residue in canonical order. Callable before any extraction.
func (c *Composition) FeatureNames() []string {
	names := make([]string, len(protein.StandardAminoAcids))
	for i, aa := range protein.StandardAminoAcids {
		names[i] = "frac_" + string(aa)
	}
	return names
}

// Extract computes composition fractions for one protein. Unknown residues
// (X) are excluded from the denominator so the fractions stay normalized.
func (c *Composition) Extract(id core.ProteinID, s *protein.Structure) (feature.Vector, error) {
	seq := sequenceOf(s)
	if seq.Len() == 0 {
		return feature.Vector{}, core.NewExtractionError(c.Name(), id, "zero-length sequence")
	}
	if err := seq.Validate(); err != nil {
		return feature.Vector{}, core.NewExtractionError(c.Name(), id, err.Error())
	}

	counts := make(map[rune]int, len(protein.StandardAminoAcids))
	total := 0
	for _, r := range string(seq) {
		if strings.ContainsRune(protein.StandardAminoAcids, r) {
			counts[r]++
			total++
		}
	}
	if total == 0 {
		return feature.Vector{}, core.NewExtractionError(c.Name(), id, "sequence has no standard residues")
	}

	values := make([]float64, len(protein.StandardAminoAcids))
	for i, aa := range protein.StandardAminoAcids {
		values[i] = float64(counts[aa]) / float64(total)
	}
	return feature.NewVector(id, c.Name(), c.FeatureNames(), values)
}

// sequenceOf prefers the explicit sequence and falls back to the one
// reconstructed from structural annotations.
func sequenceOf(s *protein.Structure) protein.Sequence {
	if s == nil {
		return ""
	}
	if s.Sequence.Len() > 0 {
		return s.Sequence
	}
	return s.Profile.Sequence()
}
