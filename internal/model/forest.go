package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"enzclass/domain/core"
	"enzclass/domain/eval"
	"enzclass/domain/feature"
	"enzclass/domain/label"
)

// Forest default hyperparameters
const (
	defaultNumTrees = 100
	defaultMaxDepth = 12
	defaultMinLeaf  = 1
)

// Forest is the ensemble-tree model kind: a seeded random forest of
// gini-impurity CART trees over bootstrap samples with sqrt-feature
// subsampling per node. It natively exposes mean-decrease-impurity
// feature importances.
type Forest struct {
	seed     int64
	numTrees int
	maxDepth int
	minLeaf  int
	state    *forestState
}

// forestState is the fitted state; everything predict/evaluate needs,
// serializable as one opaque JSON blob.
type forestState struct {
	Seed       int64         `json:"seed"`
	Columns    []string      `json:"columns"`
	Classes    []label.Class `json:"classes"`
	Trees      []*treeNode   `json:"trees"`
	Importance []float64     `json:"importance"` // per column, normalized
}

// NewForest creates an unfitted random forest with deterministic seeding
func NewForest(seed int64) *Forest {
	return &Forest{
		seed:     seed,
		numTrees: defaultNumTrees,
		maxDepth: defaultMaxDepth,
		minLeaf:  defaultMinLeaf,
	}
}

// Kind returns the model kind name
func (f *Forest) Kind() string { return KindForest }

// FeatureNames returns the frozen training schema, or nil before training
func (f *Forest) FeatureNames() []string {
	if f.state == nil {
		return nil
	}
	return append([]string(nil), f.state.Columns...)
}

// Train fits the forest, freezing the input matrix's column schema. A
// second call re-fits in place, replacing the frozen schema and parameters.
func (f *Forest) Train(m *feature.Matrix, y []label.Class) error {
	if err := checkTrainInput(m, y); err != nil {
		return err
	}

	classes, index := distinctClasses(y)
	labels := make([]int, len(y))
	for i, c := range y {
		labels[i] = index[c]
	}

	n := m.NumRows()
	d := m.NumColumns()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = m.Row(i)
	}

	mtry := int(math.Ceil(math.Sqrt(float64(d))))
	if mtry > d {
		mtry = d
	}

	importance := make([]float64, d)
	trees := make([]*treeNode, f.numTrees)
	for t := 0; t < f.numTrees; t++ {
		// One derived rng per tree keeps each tree reproducible
		// independent of build order.
		rng := rand.New(rand.NewSource(f.seed + int64(t)))

		samples := make([]int, n)
		for i := range samples {
			samples[i] = rng.Intn(n)
		}

		builder := &treeBuilder{
			rows:       rows,
			labels:     labels,
			numClasses: len(classes),
			mtry:       mtry,
			maxDepth:   f.maxDepth,
			minLeaf:    f.minLeaf,
			rng:        rng,
			importance: importance,
			totalRows:  n,
		}
		trees[t] = builder.build(samples, 0)
	}

	// Normalize accumulated impurity decreases to sum to 1
	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}

	f.state = &forestState{
		Seed:       f.seed,
		Columns:    m.Columns(),
		Classes:    classes,
		Trees:      trees,
		Importance: importance,
	}
	return nil
}

// Predict returns the majority-vote class per row. Ties break toward the
// lowest class index so results are deterministic.
func (f *Forest) Predict(m *feature.Matrix) ([]label.Class, error) {
	if err := checkFrozenSchema(f.Kind(), f.frozenColumns(), m); err != nil {
		return nil, err
	}

	out := make([]label.Class, m.NumRows())
	for i := 0; i < m.NumRows(); i++ {
		row := m.Row(i)
		votes := make([]int, len(f.state.Classes))
		for _, tree := range f.state.Trees {
			votes[tree.predict(row)]++
		}
		out[i] = f.state.Classes[majority(votes)]
	}
	return out, nil
}

// Evaluate predicts and scores without mutating model state
func (f *Forest) Evaluate(m *feature.Matrix, y []label.Class) (*eval.Report, error) {
	predicted, err := f.Predict(m)
	if err != nil {
		return nil, err
	}
	if len(y) != len(predicted) {
		return nil, fmt.Errorf("matrix has %d rows but class vector has %d entries", len(predicted), len(y))
	}
	report, err := eval.NewReport(f.Kind(), y, predicted)
	if err != nil {
		return nil, err
	}
	importances, err := f.FeatureImportance()
	if err != nil {
		return nil, err
	}
	return report.WithModelKind(f.Kind()).WithImportances(importances), nil
}

// FeatureImportance returns normalized mean-decrease-impurity scores keyed
// by the frozen column names.
func (f *Forest) FeatureImportance() (map[string]float64, error) {
	if f.state == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFitted, f.Kind())
	}
	out := make(map[string]float64, len(f.state.Columns))
	for i, col := range f.state.Columns {
		out[col] = f.state.Importance[i]
	}
	return out, nil
}

// Marshal serializes the fitted state to one opaque blob
func (f *Forest) Marshal() ([]byte, error) {
	if f.state == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFitted, f.Kind())
	}
	return json.Marshal(f.state)
}

// Unmarshal restores fitted state from a blob produced by Marshal
func (f *Forest) Unmarshal(blob []byte) error {
	var state forestState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("failed to decode forest state: %w", err)
	}
	if len(state.Columns) == 0 || len(state.Trees) == 0 {
		return fmt.Errorf("forest blob has no fitted state")
	}
	f.seed = state.Seed
	f.state = &state
	return nil
}

func (f *Forest) frozenColumns() []string {
	if f.state == nil {
		return nil
	}
	return f.state.Columns
}
