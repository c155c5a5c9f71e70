package model

import (
	"fmt"
	"sort"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/label"
	"enzclass/ports"
)

// Model kinds
const (
	KindForest    = "random_forest"
	KindLinearSVM = "linear_svm"
)

// Constructor builds an unfitted model with a fixed random seed
type Constructor func(seed int64) ports.Model

// registry maps model kinds to constructors; resolved once at pipeline
// setup rather than through scattered runtime type checks.
var registry = map[string]Constructor{
	KindForest:    func(seed int64) ports.Model { return NewForest(seed) },
	KindLinearSVM: func(seed int64) ports.Model { return NewLinearSVM(seed) },
}

// New resolves a model kind by registered name
func New(kind string, seed int64) (ports.Model, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q (available: %v)", kind, Available())
	}
	return ctor(seed), nil
}

// Load reconstructs a fitted model of the given kind from a serialized
// blob. The restored model reproduces identical predict/evaluate behavior:
// same frozen schema, same parameters.
func Load(kind string, blob []byte) (ports.Model, error) {
	m, err := New(kind, 0)
	if err != nil {
		return nil, err
	}
	if err := m.Unmarshal(blob); err != nil {
		return nil, err
	}
	return m, nil
}

// Available returns all registered model kinds, sorted
func Available() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// checkTrainInput validates a training matrix/class vector pair
func checkTrainInput(m *feature.Matrix, y []label.Class) error {
	if m == nil || m.NumRows() == 0 {
		return fmt.Errorf("training matrix is empty")
	}
	if m.NumRows() != len(y) {
		return fmt.Errorf("matrix has %d rows but class vector has %d entries", m.NumRows(), len(y))
	}
	if label.DistinctClasses(y) < 2 {
		return core.NewInsufficientDataError(m.NumRows(), label.DistinctClasses(y))
	}
	return nil
}

// checkFrozenSchema enforces the trained-schema invariant: predict and
// evaluate reject a matrix whose columns differ from the training schema by
// name or order instead of silently reordering or zero-filling.
func checkFrozenSchema(kind string, frozen []string, m *feature.Matrix) error {
	if frozen == nil {
		return fmt.Errorf("%w: %s", core.ErrNotFitted, kind)
	}
	if m == nil {
		return core.NewSchemaMismatchError("nil matrix")
	}
	if !m.SchemaEquals(frozen) {
		return core.NewSchemaMismatchError(fmt.Sprintf(
			"%s was trained on %d columns, input has %d (or differing names/order)",
			kind, len(frozen), m.NumColumns()))
	}
	return nil
}

// distinctClasses returns the sorted distinct classes of a training vector
// together with an index lookup. Class order is frozen at training time so
// encoded labels stay stable across predict calls.
func distinctClasses(y []label.Class) ([]label.Class, map[label.Class]int) {
	seen := make(map[label.Class]bool)
	var classes []label.Class
	for _, c := range y {
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	index := make(map[label.Class]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return classes, index
}
