package extract

import (
	"github.com/montanaflynn/stats"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/protein"
)

// NameSecondaryStructure identifies the structure-family extractor
const NameSecondaryStructure = "secondary_structure"

// Relative accessibility thresholds for the buried/exposed fractions
const (
	buriedRSA  = 0.2
	exposedRSA = 0.5
)

// SecondaryStructure is a structure-family extractor reducing precomputed
// per-residue annotations (secondary-structure codes, relative solvent
// accessibility, contact counts) to fixed-size summaries. It performs no
// geometric computation; that belongs to the structural-analysis boundary.
type SecondaryStructure struct{}

// NewSecondaryStructure creates a secondary structure extractor
func NewSecondaryStructure() *SecondaryStructure {
	return &SecondaryStructure{}
}

// Name returns the extractor identity used to qualify column names
func (e *SecondaryStructure) Name() string { return NameSecondaryStructure }

// FeatureNames returns the fixed column schema
func (e *SecondaryStructure) FeatureNames() []string {
	return []string{
		"helix_frac",
		"sheet_frac",
		"coil_frac",
		"rsa_mean",
		"rsa_std",
		"rsa_median",
		"buried_frac",
		"exposed_frac",
		"contact_mean",
		"contact_max",
		"chain_length",
	}
}

// Extract reduces one structural profile to summary statistics. Residues
// whose accessibility carries the not-computable sentinel contribute a
// neutral 0 instead of failing the protein; only a missing or empty profile
// is an extraction error.
func (e *SecondaryStructure) Extract(id core.ProteinID, s *protein.Structure) (feature.Vector, error) {
	if s == nil || s.Profile == nil {
		return feature.Vector{}, core.NewExtractionError(e.Name(), id, "no structural profile")
	}
	n := s.Profile.ChainLength()
	if n == 0 {
		return feature.Vector{}, core.NewExtractionError(e.Name(), id, "zero-length chain")
	}

	var helix, sheet, coil int
	rsa := make([]float64, 0, n)
	contacts := make([]float64, 0, n)
	buried, exposed := 0, 0
	for _, res := range s.Profile.Residues {
		switch res.SecondaryStruct {
		case protein.SSHelix:
			helix++
		case protein.SSSheet:
			sheet++
		default:
			coil++
		}

		acc := res.RelAccessibility
		if acc < 0 {
			acc = 0 // not-computable sentinel reduces to neutral
		}
		rsa = append(rsa, acc)
		if acc < buriedRSA {
			buried++
		}
		if acc > exposedRSA {
			exposed++
		}

		contacts = append(contacts, float64(res.ContactCount))
	}

	rsaMean, _ := stats.Mean(rsa)
	rsaStd, _ := stats.StandardDeviation(rsa)
	rsaMedian, _ := stats.Median(rsa)
	contactMean, _ := stats.Mean(contacts)
	contactMax, _ := stats.Max(contacts)

	total := float64(n)
	values := []float64{
		float64(helix) / total,
		float64(sheet) / total,
		float64(coil) / total,
		rsaMean,
		rsaStd,
		rsaMedian,
		float64(buried) / total,
		float64(exposed) / total,
		contactMean,
		contactMax,
		total,
	}
	return feature.NewVector(id, e.Name(), e.FeatureNames(), values)
}
