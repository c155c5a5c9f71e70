package annotations

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"enzclass/domain/protein"
)

func writeAnnotations(t *testing.T, structurePath string, profile *protein.StructuralProfile) {
	t.Helper()
	raw, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("Failed to marshal profile: %v", err)
	}
	if err := os.WriteFile(AnnotationPath(structurePath), raw, 0o644); err != nil {
		t.Fatalf("Failed to write annotation fixture: %v", err)
	}
}

func TestAnnotationPath(t *testing.T) {
	got := AnnotationPath("/data/structures/1lyz.pdb")
	want := "/data/structures/1lyz.annotations.json"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAnalyzer_LoadsProfile(t *testing.T) {
	dir := t.TempDir()
	structurePath := filepath.Join(dir, "1lyz.pdb")

	writeAnnotations(t, structurePath, &protein.StructuralProfile{
		ID:         "1lyz",
		Resolution: 1.5,
		Method:     "X-RAY DIFFRACTION",
		Residues: []protein.ResidueAnnotation{
			{Index: 0, AminoAcid: "K", SecondaryStruct: protein.SSHelix, RelAccessibility: 0.4, ContactCount: 3},
			{Index: 1, AminoAcid: "V", SecondaryStruct: protein.SSCoil, RelAccessibility: protein.RSANotComputable, ContactCount: 5},
		},
	})

	rec := protein.StructureRecord{ID: "1lyz", Path: structurePath, Provenance: protein.ProvenanceExperimental}
	s, err := NewAnalyzer().Analyze(context.Background(), rec)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if s.Profile.ChainLength() != 2 {
		t.Errorf("Expected 2 residues, got %d", s.Profile.ChainLength())
	}
	if s.Sequence != "KV" {
		t.Errorf("Expected sequence KV, got %s", s.Sequence)
	}
	if s.Profile.Resolution != 1.5 {
		t.Errorf("Expected resolution 1.5, got %v", s.Profile.Resolution)
	}
	// sentinel passes through untouched; extractors reduce it
	if s.Profile.Residues[1].RelAccessibility != protein.RSANotComputable {
		t.Error("Expected the not-computable sentinel to be preserved")
	}
}

func TestAnalyzer_RejectsIDMismatch(t *testing.T) {
	dir := t.TempDir()
	structurePath := filepath.Join(dir, "1lyz.pdb")
	writeAnnotations(t, structurePath, &protein.StructuralProfile{
		ID:       "2abc",
		Residues: []protein.ResidueAnnotation{{Index: 0, AminoAcid: "A"}},
	})

	rec := protein.StructureRecord{ID: "1lyz", Path: structurePath}
	if _, err := NewAnalyzer().Analyze(context.Background(), rec); err == nil {
		t.Fatal("Expected error for annotation/record ID mismatch")
	}
}

func TestAnalyzer_MissingFile(t *testing.T) {
	rec := protein.StructureRecord{ID: "1lyz", Path: filepath.Join(t.TempDir(), "1lyz.pdb")}
	if _, err := NewAnalyzer().Analyze(context.Background(), rec); err == nil {
		t.Fatal("Expected error for missing annotation file")
	}
}

func TestAnalyzer_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	structurePath := filepath.Join(dir, "1lyz.pdb")
	if err := os.WriteFile(AnnotationPath(structurePath), []byte("not json"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	rec := protein.StructureRecord{ID: "1lyz", Path: structurePath}
	if _, err := NewAnalyzer().Analyze(context.Background(), rec); err == nil {
		t.Fatal("Expected error for malformed annotation file")
	}
}
