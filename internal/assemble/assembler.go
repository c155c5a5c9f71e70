package assemble

import (
	"fmt"
	"sort"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/label"
	"enzclass/domain/run"
	"enzclass/ports"
)

// Assembler joins per-extractor feature vectors and a label set into one
// aligned feature matrix plus class vector. Row order is deterministic
// (sorted by identifier) and assembly fails loudly on any schema or
// alignment violation rather than silently misaligning rows.
type Assembler struct {
	extractors []ports.Extractor
	columns    []string
}

// New creates an assembler for a fixed extractor configuration. The column
// schema is established here, before any extraction, from each extractor's
// declared feature names, qualified by extractor identity.
func New(extractors ...ports.Extractor) (*Assembler, error) {
	if len(extractors) == 0 {
		return nil, fmt.Errorf("assembler requires at least one extractor")
	}
	seen := make(map[string]bool, len(extractors))
	var columns []string
	for _, ex := range extractors {
		if seen[ex.Name()] {
			return nil, fmt.Errorf("extractor %q configured twice", ex.Name())
		}
		seen[ex.Name()] = true
		names := ex.FeatureNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("extractor %q declares no features", ex.Name())
		}
		columns = append(columns, feature.QualifyNames(ex.Name(), names)...)
	}
	return &Assembler{extractors: extractors, columns: columns}, nil
}

// Columns returns the full extractor-qualified column schema
func (a *Assembler) Columns() []string {
	return append([]string(nil), a.columns...)
}

// Result carries the assembled matrix, the aligned class vector, and the
// informational exclusion report.
type Result struct {
	Matrix     *feature.Matrix
	Classes    []label.Class
	Exclusions []run.Exclusion
}

// Assemble joins extraction output against the label set.
//
// A protein survives only when every configured extractor produced a vector
// for it and the label set names it; everything else is excluded with a
// recorded reason. Survivor rows are sorted by identifier, each extractor's
// values concatenated in declared column order, and every retained row is
// validated for exact column count and finite cells.
//
// When no protein survives, the returned error is an insufficient-data
// error and the Result is still non-nil, carrying the full exclusion list.
func (a *Assembler) Assemble(vectors map[core.ProteinID]map[string]feature.Vector, labels *label.Set) (*Result, error) {
	if labels == nil {
		return nil, fmt.Errorf("assembler requires a label set")
	}

	candidates := make([]core.ProteinID, 0, len(vectors))
	for id := range vectors {
		candidates = append(candidates, id)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	var survivors []core.ProteinID
	var exclusions []run.Exclusion
	for _, id := range candidates {
		if missing := a.missingExtractor(vectors[id]); missing != "" {
			exclusions = append(exclusions, run.Exclusion{
				ID:     id,
				Stage:  run.StageExtraction,
				Reason: run.ReasonExtractionFailed + ":" + missing,
			})
			continue
		}
		if !labels.Has(id) {
			exclusions = append(exclusions, run.Exclusion{
				ID:     id,
				Stage:  run.StageAssembly,
				Reason: run.ReasonNoLabel,
			})
			continue
		}
		survivors = append(survivors, id)
	}

	// Zero survivors is a data problem, not an alignment violation. The
	// partial result carries the exclusions so the caller can still report
	// why every protein was dropped.
	if len(survivors) == 0 {
		return &Result{Exclusions: exclusions}, core.NewInsufficientDataError(0, 0)
	}

	cells := make([][]float64, len(survivors))
	for i, id := range survivors {
		row := make([]float64, 0, len(a.columns))
		for _, ex := range a.extractors {
			vec := vectors[id][ex.Name()]
			if !feature.SchemaEquals(vec.Names, ex.FeatureNames()) {
				return nil, core.NewAssemblyError(id, ex.Name(),
					"vector schema differs from the extractor's declared feature names")
			}
			row = append(row, vec.Values...)
		}
		if len(row) != len(a.columns) {
			return nil, core.NewAssemblyError(id, "",
				fmt.Sprintf("row has %d values, schema has %d columns", len(row), len(a.columns)))
		}
		cells[i] = row
	}

	matrix, err := feature.NewMatrix(survivors, a.columns, cells)
	if err != nil {
		return nil, err
	}
	classes, err := labels.Align(matrix.RowIDs())
	if err != nil {
		return nil, err
	}

	return &Result{Matrix: matrix, Classes: classes, Exclusions: exclusions}, nil
}

// missingExtractor returns the first configured extractor with no vector
// for this protein, in declared order, or "" when all are present.
func (a *Assembler) missingExtractor(byExtractor map[string]feature.Vector) string {
	for _, ex := range a.extractors {
		if _, ok := byExtractor[ex.Name()]; !ok {
			return ex.Name()
		}
	}
	return ""
}
