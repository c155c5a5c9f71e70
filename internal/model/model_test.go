package model

import (
	"errors"
	"math/rand"
	"testing"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/label"
)

// syntheticTrainingSet builds a deterministic, trivially separable dataset:
// class "1" rows cluster near x=0, class "2" rows near x=10.
func syntheticTrainingSet(t *testing.T, perClass int, seed int64) (*feature.Matrix, []label.Class) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	var ids []core.ProteinID
	var cells [][]float64
	var classes []label.Class
	for i := 0; i < perClass*2; i++ {
		var center float64
		var class label.Class
		if i < perClass {
			center, class = 0, "1"
		} else {
			center, class = 10, "2"
		}
		ids = append(ids, core.ProteinID(testID(i)))
		cells = append(cells, []float64{
			center + rng.Float64(),
			-center + rng.Float64(),
			rng.Float64(),
		})
		classes = append(classes, class)
	}

	m, err := feature.NewMatrix(ids, []string{"x.a", "x.b", "x.c"}, cells)
	if err != nil {
		t.Fatalf("Failed to build training matrix: %v", err)
	}
	return m, classes
}

// testID yields identifiers that sort in construction order
func testID(i int) string {
	return string([]byte{'p', byte('a' + i/26), byte('a' + i%26)})
}

func TestNew_UnknownKind(t *testing.T) {
	if _, err := New("perceptron", 1); err == nil {
		t.Error("Expected error for unknown model kind")
	}
	kinds := Available()
	if len(kinds) != 2 || kinds[0] != KindLinearSVM || kinds[1] != KindForest {
		t.Errorf("Unexpected registered kinds: %v", kinds)
	}
}

func TestModels_LearnSeparableData(t *testing.T) {
	for _, kind := range Available() {
		t.Run(kind, func(t *testing.T) {
			m, y := syntheticTrainingSet(t, 10, 7)
			clf, err := New(kind, 42)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if err := clf.Train(m, y); err != nil {
				t.Fatalf("Train failed: %v", err)
			}

			report, err := clf.Evaluate(m, y)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if report.Accuracy < 0.95 {
				t.Errorf("Expected near-perfect accuracy on separable data, got %v", report.Accuracy)
			}
			if report.NumSamples != 20 {
				t.Errorf("Expected 20 samples, got %d", report.NumSamples)
			}
			if report.ModelKind != kind {
				t.Errorf("Expected report tagged %s, got %s", kind, report.ModelKind)
			}
		})
	}
}

func TestModels_DeterministicForFixedSeed(t *testing.T) {
	for _, kind := range Available() {
		t.Run(kind, func(t *testing.T) {
			m, y := syntheticTrainingSet(t, 8, 3)

			first, err := New(kind, 99)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			second, _ := New(kind, 99)
			if err := first.Train(m, y); err != nil {
				t.Fatalf("Train failed: %v", err)
			}
			if err := second.Train(m, y); err != nil {
				t.Fatalf("Train failed: %v", err)
			}

			p1, err := first.Predict(m)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			p2, _ := second.Predict(m)
			for i := range p1 {
				if p1[i] != p2[i] {
					t.Fatalf("Same seed produced different predictions at row %d: %s vs %s", i, p1[i], p2[i])
				}
			}
		})
	}
}

func TestModel_NotFittedBeforeTrain(t *testing.T) {
	m, _ := syntheticTrainingSet(t, 2, 1)
	for _, kind := range Available() {
		clf, _ := New(kind, 1)
		if _, err := clf.Predict(m); !errors.Is(err, core.ErrNotFitted) {
			t.Errorf("%s: expected ErrNotFitted, got %v", kind, err)
		}
		if _, err := clf.Evaluate(m, []label.Class{"1"}); !errors.Is(err, core.ErrNotFitted) {
			t.Errorf("%s: expected ErrNotFitted from Evaluate, got %v", kind, err)
		}
	}
}

func TestModel_FrozenSchemaRejectsDrift(t *testing.T) {
	m, y := syntheticTrainingSet(t, 5, 2)
	clf, _ := New(KindForest, 42)
	if err := clf.Train(m, y); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// same data, columns renamed
	cells := make([][]float64, m.NumRows())
	for i := range cells {
		cells[i] = m.Row(i)
	}
	renamed, err := feature.NewMatrix(m.RowIDs(), []string{"x.a", "x.b", "y.c"}, cells)
	if err != nil {
		t.Fatalf("Failed to build renamed matrix: %v", err)
	}

	if _, err := clf.Predict(renamed); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch for renamed columns, got %v", err)
	}
}

func TestModel_RefitReplacesSchema(t *testing.T) {
	m, y := syntheticTrainingSet(t, 5, 2)
	clf, _ := New(KindForest, 42)
	if err := clf.Train(m, y); err != nil {
		t.Fatalf("First train failed: %v", err)
	}

	// refit on a narrower schema; the old schema must be fully replaced
	cells := make([][]float64, m.NumRows())
	for i := range cells {
		cells[i] = m.Row(i)[:2]
	}
	narrow, err := feature.NewMatrix(m.RowIDs(), []string{"x.a", "x.b"}, cells)
	if err != nil {
		t.Fatalf("Failed to build narrow matrix: %v", err)
	}
	if err := clf.Train(narrow, y); err != nil {
		t.Fatalf("Refit failed: %v", err)
	}

	if got := clf.FeatureNames(); len(got) != 2 {
		t.Fatalf("Expected refit schema of 2 columns, got %v", got)
	}
	if _, err := clf.Predict(m); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("Expected old schema to be rejected after refit, got %v", err)
	}
	if _, err := clf.Predict(narrow); err != nil {
		t.Errorf("Expected new schema to predict cleanly, got %v", err)
	}
}

func TestModel_PersistenceRoundTrip(t *testing.T) {
	for _, kind := range Available() {
		t.Run(kind, func(t *testing.T) {
			m, y := syntheticTrainingSet(t, 8, 5)
			clf, _ := New(kind, 42)
			if err := clf.Train(m, y); err != nil {
				t.Fatalf("Train failed: %v", err)
			}
			want, err := clf.Predict(m)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}

			blob, err := clf.Marshal()
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			restored, err := Load(kind, blob)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			got, err := restored.Predict(m)
			if err != nil {
				t.Fatalf("Restored model failed to predict: %v", err)
			}
			for i := range want {
				if want[i] != got[i] {
					t.Fatalf("Restored model diverged at row %d: %s vs %s", i, want[i], got[i])
				}
			}
			if !feature.SchemaEquals(restored.FeatureNames(), clf.FeatureNames()) {
				t.Error("Restored model lost the frozen schema")
			}
		})
	}
}

func TestForest_FeatureImportance(t *testing.T) {
	m, y := syntheticTrainingSet(t, 10, 7)
	clf, _ := New(KindForest, 42)
	if err := clf.Train(m, y); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	importances, err := clf.FeatureImportance()
	if err != nil {
		t.Fatalf("FeatureImportance failed: %v", err)
	}
	if len(importances) != 3 {
		t.Fatalf("Expected one importance per column, got %v", importances)
	}
	sum := 0.0
	for _, v := range importances {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("Expected normalized importances, sum is %v", sum)
	}
	// the informative columns should dominate the noise column
	if importances["x.c"] > importances["x.a"] {
		t.Errorf("Noise column outranked the informative column: %v", importances)
	}
}

func TestLinearSVM_ImportanceUnsupported(t *testing.T) {
	m, y := syntheticTrainingSet(t, 5, 2)
	clf, _ := New(KindLinearSVM, 42)
	if err := clf.Train(m, y); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if _, err := clf.FeatureImportance(); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestModel_RejectsSingleClassAndEmpty(t *testing.T) {
	m, _ := syntheticTrainingSet(t, 3, 1)
	oneClass := []label.Class{"1", "1", "1", "1", "1", "1"}
	for _, kind := range Available() {
		clf, _ := New(kind, 1)
		if err := clf.Train(m, oneClass); err == nil {
			t.Errorf("%s: expected error training on a single class", kind)
		}
		if err := clf.Train(nil, nil); err == nil {
			t.Errorf("%s: expected error training on empty input", kind)
		}
	}
}
