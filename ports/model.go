package ports

import (
	"enzclass/domain/eval"
	"enzclass/domain/feature"
	"enzclass/domain/label"
)

// Model wraps one classifier kind behind a uniform train/predict/evaluate
// surface so additional kinds can be added without changing the pipeline.
//
// Train freezes the feature schema from its input matrix; a second Train
// call re-fits in place, replacing schema and parameters. Predict and
// Evaluate signal core.ErrSchemaMismatch when the input columns differ from
// the frozen schema by name or order, and core.ErrNotFitted before any
// training. Evaluate never mutates model state and is deterministic for a
// fixed seed. FeatureImportance signals core.ErrUnsupported for kinds with
// no native importances rather than returning an empty mapping.
type Model interface {
	Kind() string
	FeatureNames() []string
	Train(m *feature.Matrix, y []label.Class) error
	Predict(m *feature.Matrix) ([]label.Class, error)
	Evaluate(m *feature.Matrix, y []label.Class) (*eval.Report, error)
	FeatureImportance() (map[string]float64, error)

	// Marshal/Unmarshal move the fitted state through a single opaque blob.
	// A round-trip reproduces identical predict/evaluate behavior.
	Marshal() ([]byte, error)
	Unmarshal(blob []byte) error
}
