package annotations

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"enzclass/domain/protein"
)

// Analyzer implements the structural-analysis boundary by loading
// precomputed per-residue annotation files produced by an external geometry
// toolkit. The convention is one JSON file per structure, named
// <id>.annotations.json, next to the structure file itself.
//
// This adapter is deliberately thin I/O: secondary structure, solvent
// accessibility and contacts were computed elsewhere; it only loads and
// validates them.
type Analyzer struct{}

// NewAnalyzer creates an annotation-file-backed analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnnotationPath derives the annotation file path for a structure file
func AnnotationPath(structurePath string) string {
	base := strings.TrimSuffix(structurePath, filepath.Ext(structurePath))
	return base + ".annotations.json"
}

// Analyze loads the annotation file for one structure record and bundles
// sequence plus profile. A missing or malformed file makes the whole
// structure unusable and is reported as an error; per-residue
// not-computable sentinels are preserved for extractors to reduce.
func (a *Analyzer) Analyze(_ context.Context, rec protein.StructureRecord) (*protein.Structure, error) {
	path := AnnotationPath(rec.Path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations for %s: %w", rec.ID, err)
	}

	var profile protein.StructuralProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("malformed annotations for %s: %w", rec.ID, err)
	}
	if !profile.ID.IsEmpty() && profile.ID != rec.ID {
		return nil, fmt.Errorf("annotations at %s are for %s, expected %s", path, profile.ID, rec.ID)
	}
	profile.ID = rec.ID

	return &protein.Structure{
		Record:   rec,
		Sequence: profile.Sequence(),
		Profile:  &profile,
	}, nil
}
