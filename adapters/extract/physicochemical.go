package extract

import (
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/protein"
)

// NamePhysicochemical identifies the physicochemical aggregate extractor
const NamePhysicochemical = "physicochemical"

// Kyte-Doolittle hydropathy index per residue
var hydropathy = map[rune]float64{
	'A': 1.8, 'C': 2.5, 'D': -3.5, 'E': -3.5, 'F': 2.8,
	'G': -0.4, 'H': -3.2, 'I': 4.5, 'K': -3.9, 'L': 3.8,
	'M': 1.9, 'N': -3.5, 'P': -1.6, 'Q': -3.5, 'R': -4.5,
	'S': -0.8, 'T': -0.7, 'V': 4.2, 'W': -0.9, 'Y': -1.3,
}

// Average residue masses in daltons
var residueMass = map[rune]float64{
	'A': 71.08, 'C': 103.14, 'D': 115.09, 'E': 129.12, 'F': 147.18,
	'G': 57.05, 'H': 137.14, 'I': 113.16, 'K': 128.17, 'L': 113.16,
	'M': 131.19, 'N': 114.10, 'P': 97.12, 'Q': 128.13, 'R': 156.19,
	'S': 87.08, 'T': 101.10, 'V': 99.13, 'W': 186.21, 'Y': 163.18,
}

// Side chain charge at physiological pH
var residueCharge = map[rune]float64{
	'D': -1, 'E': -1, 'K': 1, 'R': 1, 'H': 0.1,
}

const aromaticResidues = "FWY"

// Physicochemical is a sequence-family extractor reducing residue-level
// physicochemical scales to fixed-size aggregate statistics. Deterministic
// and independent of chain length for any sequence of length >= 1.
type Physicochemical struct{}

// NewPhysicochemical creates a physicochemical extractor
func NewPhysicochemical() *Physicochemical {
	return &Physicochemical{}
}

// Name returns the extractor identity used to qualify column names
func (p *Physicochemical) Name() string { return NamePhysicochemical }

// FeatureNames returns the fixed column schema
func (p *Physicochemical) FeatureNames() []string {
	return []string{
		"hydropathy_mean",
		"hydropathy_std",
		"hydropathy_min",
		"hydropathy_max",
		"mass_mean",
		"charge_per_residue",
		"aromatic_frac",
		"composition_entropy",
		"length",
	}
}

// Extract computes aggregate physicochemical statistics for one sequence
func (p *Physicochemical) Extract(id core.ProteinID, s *protein.Structure) (feature.Vector, error) {
	seq := sequenceOf(s)
	if seq.Len() == 0 {
		return feature.Vector{}, core.NewExtractionError(p.Name(), id, "zero-length sequence")
	}
	if err := seq.Validate(); err != nil {
		return feature.Vector{}, core.NewExtractionError(p.Name(), id, err.Error())
	}

	var hydro []float64
	var massSum, chargeSum float64
	aromatic := 0
	counts := make(map[rune]int)
	counted := 0
	for _, r := range string(seq) {
		h, ok := hydropathy[r]
		if !ok {
			continue // unknown residue, excluded from every aggregate
		}
		hydro = append(hydro, h)
		massSum += residueMass[r]
		chargeSum += residueCharge[r]
		if strings.ContainsRune(aromaticResidues, r) {
			aromatic++
		}
		counts[r]++
		counted++
	}
	if counted == 0 {
		return feature.Vector{}, core.NewExtractionError(p.Name(), id, "sequence has no standard residues")
	}

	mean, _ := stats.Mean(hydro)
	stdDev, _ := stats.StandardDeviation(hydro)
	minH, _ := stats.Min(hydro)
	maxH, _ := stats.Max(hydro)

	// Shannon entropy of the composition distribution; low for repetitive
	// sequences, approaches log(20) for uniform ones.
	dist := make([]float64, 0, len(counts))
	for _, n := range counts {
		dist = append(dist, float64(n)/float64(counted))
	}
	entropy := stat.Entropy(dist)

	values := []float64{
		mean,
		stdDev,
		minH,
		maxH,
		massSum / float64(counted),
		chargeSum / float64(counted),
		float64(aromatic) / float64(counted),
		entropy,
		float64(seq.Len()),
	}
	return feature.NewVector(id, p.Name(), p.FeatureNames(), values)
}
