package protein

import (
	"fmt"
	"strings"
	"time"

	"enzclass/domain/core"
)

// Provenance distinguishes experimentally determined structures from
// computationally predicted ones.
type Provenance string

const (
	ProvenanceExperimental Provenance = "experimental"
	ProvenancePredicted    Provenance = "predicted"
)

// StructureRecord points at a locally materialized structure file.
// Immutable once created; the pipeline discards it after extraction.
type StructureRecord struct {
	ID         core.ProteinID `json:"id"`
	Path       string         `json:"path"`
	Provenance Provenance     `json:"provenance"`
	Source     string         `json:"source"` // name of the data source that produced it
	FetchedAt  time.Time      `json:"fetched_at"`
}

// Sequence is a one-letter-code amino acid sequence
type Sequence string

// StandardAminoAcids lists the 20 standard residues in canonical order.
// Composition features and their column names follow this order.
const StandardAminoAcids = "ACDEFGHIKLMNPQRSTVWY"

// Len returns the number of residues
func (s Sequence) Len() int { return len(s) }

// Validate checks the sequence is non-empty and uses only standard
// one-letter codes (plus X for unknown residues).
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty sequence")
	}
	for i, r := range string(s) {
		if r == 'X' {
			continue
		}
		if !strings.ContainsRune(StandardAminoAcids, r) {
			return fmt.Errorf("non-standard residue %q at position %d", r, i)
		}
	}
	return nil
}

// Secondary structure codes as reduced by the external geometry toolkit.
const (
	SSHelix = "H"
	SSSheet = "E"
	SSCoil  = "C"
)

// RSANotComputable is the sentinel the annotation boundary uses for
// residues whose relative solvent accessibility could not be computed.
// Extractors reduce it to a neutral 0 rather than propagating an error.
const RSANotComputable = -1.0

// ResidueAnnotation carries the precomputed structural annotations for one
// residue. The geometry itself is computed by an external toolkit; the core
// only reduces these values to fixed-size summaries.
type ResidueAnnotation struct {
	Index            int     `json:"index"`
	AminoAcid        string  `json:"amino_acid"`
	SecondaryStruct  string  `json:"secondary_structure"`
	RelAccessibility float64 `json:"rel_accessibility"` // [0,1], or RSANotComputable
	ContactCount     int     `json:"contact_count"`
}

// StructuralProfile is the per-structure output of the structural-analysis
// boundary: one annotation per residue plus file-level metadata.
type StructuralProfile struct {
	ID         core.ProteinID      `json:"id"`
	Resolution float64             `json:"resolution"` // angstroms; 0 for predicted structures
	Method     string              `json:"method"`
	Residues   []ResidueAnnotation `json:"residues"`
}

// ChainLength returns the number of annotated residues
func (p *StructuralProfile) ChainLength() int {
	if p == nil {
		return 0
	}
	return len(p.Residues)
}

// Sequence reconstructs the amino acid sequence from the annotations
func (p *StructuralProfile) Sequence() Sequence {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range p.Residues {
		aa := r.AminoAcid
		if aa == "" {
			aa = "X"
		}
		b.WriteString(aa)
	}
	return Sequence(b.String())
}

// Structure bundles everything extractors may consume for one protein:
// the materialized record, its sequence, and the precomputed profile.
type Structure struct {
	Record   StructureRecord
	Sequence Sequence
	Profile  *StructuralProfile
}
