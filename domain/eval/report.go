package eval

import (
	"fmt"
	"sort"

	"enzclass/domain/label"
)

// ClassMetrics is the per-class breakdown of an evaluation
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the immutable outcome of one evaluate call: overall and
// per-class metrics, the confusion matrix, and feature importances when the
// model kind exposes them (nil otherwise).
type Report struct {
	NumSamples  int                          `json:"num_samples"`
	Accuracy    float64                      `json:"accuracy"`
	MacroF1     float64                      `json:"macro_f1"`
	Classes     []label.Class                `json:"classes"` // confusion matrix axis order
	Confusion   [][]int                      `json:"confusion"`
	PerClass    map[label.Class]ClassMetrics `json:"per_class"`
	Importances map[string]float64           `json:"importances,omitempty"`
	ModelKind   string                       `json:"model_kind"`
}

// NewReport computes an evaluation report from aligned actual/predicted
// class vectors. The class axis covers every class seen on either side,
// sorted, so the confusion matrix shape is stable across runs.
func NewReport(modelKind string, actual, predicted []label.Class) (*Report, error) {
	if len(actual) == 0 {
		return nil, fmt.Errorf("cannot evaluate zero samples")
	}
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("actual/predicted length mismatch: %d vs %d", len(actual), len(predicted))
	}

	classSet := make(map[label.Class]bool)
	for _, c := range actual {
		classSet[c] = true
	}
	for _, c := range predicted {
		classSet[c] = true
	}
	classes := make([]label.Class, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	index := make(map[label.Class]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	correct := 0
	for i := range actual {
		confusion[index[actual[i]]][index[predicted[i]]]++
		if actual[i] == predicted[i] {
			correct++
		}
	}

	perClass := make(map[label.Class]ClassMetrics, len(classes))
	macroF1 := 0.0
	for i, c := range classes {
		tp := confusion[i][i]
		actualTotal := 0
		predictedTotal := 0
		for j := range classes {
			actualTotal += confusion[i][j]
			predictedTotal += confusion[j][i]
		}

		precision := 0.0
		if predictedTotal > 0 {
			precision = float64(tp) / float64(predictedTotal)
		}
		recall := 0.0
		if actualTotal > 0 {
			recall = float64(tp) / float64(actualTotal)
		}
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		perClass[c] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   actualTotal,
		}
		macroF1 += f1
	}
	macroF1 /= float64(len(classes))

	return &Report{
		NumSamples: len(actual),
		Accuracy:   float64(correct) / float64(len(actual)),
		MacroF1:    macroF1,
		Classes:    classes,
		Confusion:  confusion,
		PerClass:   perClass,
		ModelKind:  modelKind,
	}, nil
}

// WithImportances returns a copy of the report carrying feature importances
func (r *Report) WithImportances(importances map[string]float64) *Report {
	out := *r
	out.Importances = importances
	return &out
}

// WithModelKind returns a copy of the report tagged with the model kind
func (r *Report) WithModelKind(kind string) *Report {
	out := *r
	out.ModelKind = kind
	return &out
}
