package report

import (
	"strings"
	"testing"
	"time"

	"enzclass/domain/eval"
	"enzclass/domain/label"
	"enzclass/domain/run"
)

func fixtureRecord(t *testing.T) *run.Record {
	t.Helper()
	actual := []label.Class{"1", "1", "2", "2", "3"}
	predicted := []label.Class{"1", "2", "2", "2", "3"}
	r, err := eval.NewReport("random_forest", actual, predicted)
	if err != nil {
		t.Fatalf("Failed to build report: %v", err)
	}
	r = r.WithImportances(map[string]float64{
		"aa_composition.frac_a":              0.5,
		"secondary_structure.helix_frac":     0.3,
		"physicochemical.hydropathy_mean":    0.15,
		"physicochemical.charge_per_residue": 0.05,
	})

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &run.Record{
		ID:         "0195e240-0000-7000-8000-000000000001",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		Source:     "pdb",
		Extractors: []string{"aa_composition", "physicochemical", "secondary_structure"},
		ModelKind:  "random_forest",
		Seed:       42,
		TrainRatio: 0.7,
		Candidates: 7,
		Rows:       5,
		Exclusions: []run.Exclusion{
			{ID: "3bad", Stage: run.StageExtraction, Reason: "extraction_failed:secondary_structure", Detail: "zero-length chain"},
			{ID: "9zzz", Stage: run.StageResolution, Reason: run.ReasonNotFound},
		},
		Report: r,
	}
}

func TestMarkdown_ContainsAllSections(t *testing.T) {
	md := Markdown(fixtureRecord(t))

	for _, want := range []string{
		"# Enzyme Class Prediction Run",
		"**Source:** pdb",
		"**Model:** random_forest",
		"## Metrics",
		"**Accuracy:** 0.8000",
		"### Per-Class",
		"### Confusion Matrix",
		"### Top Feature Importances",
		"aa_composition.frac_a",
		"## Excluded Proteins",
		"extraction_failed:secondary_structure",
		"zero-length chain",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestMarkdown_FailedRun(t *testing.T) {
	rec := fixtureRecord(t)
	rec.Report = nil
	rec.Error = "insufficient data for training: 1 rows across 1 classes survived assembly"

	md := Markdown(rec)
	if !strings.Contains(md, "## Run Failed") {
		t.Error("Expected a failure section")
	}
	if strings.Contains(md, "## Metrics") {
		t.Error("Failed run must not render metrics")
	}
}

func TestMarkdown_ImportancesRankedAndCapped(t *testing.T) {
	rec := fixtureRecord(t)
	md := Markdown(rec)

	// highest importance listed before the rest
	first := strings.Index(md, "aa_composition.frac_a")
	second := strings.Index(md, "secondary_structure.helix_frac")
	if first == -1 || second == -1 || first > second {
		t.Error("Importances not ranked by descending value")
	}
}

func TestHTML_RendersCompletePage(t *testing.T) {
	html := string(HTML(fixtureRecord(t)))

	if !strings.Contains(html, "<html") {
		t.Error("Expected a complete HTML page")
	}
	if !strings.Contains(html, "<table>") {
		t.Error("Expected markdown tables rendered as HTML tables")
	}
	if !strings.Contains(html, "random_forest") {
		t.Error("Expected run content in the page")
	}
}
