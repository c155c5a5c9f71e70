package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"enzclass/domain/core"
	"enzclass/domain/eval"
	"enzclass/domain/feature"
	"enzclass/domain/label"
)

// LinearSVM hyperparameters (Pegasos-style subgradient descent)
const (
	defaultEpochs = 50
	defaultLambda = 0.01
)

// LinearSVM is the margin-based model kind: one-vs-rest linear SVMs
// trained by seeded hinge-loss subgradient descent. It exposes no native
// feature importances.
type LinearSVM struct {
	seed   int64
	epochs int
	lambda float64
	state  *svmState
}

// svmState is the fitted state: one weight vector (plus bias as the last
// entry) per class, over standardized features.
type svmState struct {
	Seed    int64         `json:"seed"`
	Columns []string      `json:"columns"`
	Classes []label.Class `json:"classes"`
	Weights [][]float64   `json:"weights"`
	Mean    []float64     `json:"mean"`
	Scale   []float64     `json:"scale"`
}

// NewLinearSVM creates an unfitted linear SVM with deterministic seeding
func NewLinearSVM(seed int64) *LinearSVM {
	return &LinearSVM{
		seed:   seed,
		epochs: defaultEpochs,
		lambda: defaultLambda,
	}
}

// Kind returns the model kind name
func (s *LinearSVM) Kind() string { return KindLinearSVM }

// FeatureNames returns the frozen training schema, or nil before training
func (s *LinearSVM) FeatureNames() []string {
	if s.state == nil {
		return nil
	}
	return append([]string(nil), s.state.Columns...)
}

// Train fits one-vs-rest hinge-loss classifiers, freezing the input
// matrix's column schema. A second call re-fits in place.
func (s *LinearSVM) Train(m *feature.Matrix, y []label.Class) error {
	if err := checkTrainInput(m, y); err != nil {
		return err
	}

	classes, _ := distinctClasses(y)
	n := m.NumRows()
	d := m.NumColumns()

	// Column standardization keeps the fixed learning-rate schedule sane
	// across features with very different ranges (fractions vs. lengths).
	mean := make([]float64, d)
	scale := make([]float64, d)
	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += m.At(i, j)
		}
		mean[j] = sum / float64(n)
		varSum := 0.0
		for i := 0; i < n; i++ {
			diff := m.At(i, j) - mean[j]
			varSum += diff * diff
		}
		scale[j] = 1.0
		if varSum > 0 {
			scale[j] = 1.0 / math.Sqrt(varSum/float64(n))
		}
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		raw := m.Row(i)
		row := make([]float64, d+1)
		for j := 0; j < d; j++ {
			row[j] = (raw[j] - mean[j]) * scale[j]
		}
		row[d] = 1 // bias term
		rows[i] = row
	}

	weights := make([][]float64, len(classes))
	for c := range classes {
		weights[c] = s.trainOneVsRest(rows, y, classes[c], c)
	}

	s.state = &svmState{
		Seed:    s.seed,
		Columns: m.Columns(),
		Classes: classes,
		Weights: weights,
		Mean:    mean,
		Scale:   scale,
	}
	return nil
}

// trainOneVsRest fits one binary hinge-loss classifier for a single class
func (s *LinearSVM) trainOneVsRest(rows [][]float64, y []label.Class, target label.Class, classIdx int) []float64 {
	n := len(rows)
	d := len(rows[0])
	w := make([]float64, d)

	// Per-class derived seed so each binary problem shuffles independently
	// but reproducibly.
	rng := rand.New(rand.NewSource(s.seed + int64(classIdx)*7919))

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	t := 0
	for epoch := 0; epoch < s.epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			t++
			eta := 1.0 / (s.lambda * float64(t))

			yi := -1.0
			if y[i] == target {
				yi = 1.0
			}

			margin := yi * floats.Dot(w, rows[i])
			// Pegasos subgradient step: always shrink, add the sample
			// gradient only inside the margin.
			floats.Scale(1-eta*s.lambda, w)
			if margin < 1 {
				floats.AddScaled(w, eta*yi, rows[i])
			}
		}
	}
	return w
}

// Predict returns the argmax one-vs-rest score per row. Ties break toward
// the lowest class index so results are deterministic.
func (s *LinearSVM) Predict(m *feature.Matrix) ([]label.Class, error) {
	if err := checkFrozenSchema(s.Kind(), s.frozenColumns(), m); err != nil {
		return nil, err
	}

	d := len(s.state.Columns)
	out := make([]label.Class, m.NumRows())
	for i := 0; i < m.NumRows(); i++ {
		raw := m.Row(i)
		row := make([]float64, d+1)
		for j := 0; j < d; j++ {
			row[j] = (raw[j] - s.state.Mean[j]) * s.state.Scale[j]
		}
		row[d] = 1

		best := 0
		bestScore := floats.Dot(s.state.Weights[0], row)
		for c := 1; c < len(s.state.Classes); c++ {
			score := floats.Dot(s.state.Weights[c], row)
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		out[i] = s.state.Classes[best]
	}
	return out, nil
}

// Evaluate predicts and scores without mutating model state. No
// importances are attached; this kind does not support them.
func (s *LinearSVM) Evaluate(m *feature.Matrix, y []label.Class) (*eval.Report, error) {
	predicted, err := s.Predict(m)
	if err != nil {
		return nil, err
	}
	if len(y) != len(predicted) {
		return nil, fmt.Errorf("matrix has %d rows but class vector has %d entries", len(predicted), len(y))
	}
	report, err := eval.NewReport(s.Kind(), y, predicted)
	if err != nil {
		return nil, err
	}
	return report.WithModelKind(s.Kind()), nil
}

// FeatureImportance always fails: a margin-based kind has no native
// importances, and returning an empty mapping would be misleading.
func (s *LinearSVM) FeatureImportance() (map[string]float64, error) {
	return nil, fmt.Errorf("%w: %s has no native feature importances", core.ErrUnsupported, s.Kind())
}

// Marshal serializes the fitted state to one opaque blob
func (s *LinearSVM) Marshal() ([]byte, error) {
	if s.state == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFitted, s.Kind())
	}
	return json.Marshal(s.state)
}

// Unmarshal restores fitted state from a blob produced by Marshal
func (s *LinearSVM) Unmarshal(blob []byte) error {
	var state svmState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("failed to decode SVM state: %w", err)
	}
	if len(state.Columns) == 0 || len(state.Weights) == 0 {
		return fmt.Errorf("SVM blob has no fitted state")
	}
	s.seed = state.Seed
	s.state = &state
	return nil
}

func (s *LinearSVM) frozenColumns() []string {
	if s.state == nil {
		return nil
	}
	return s.state.Columns
}
