package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"enzclass/domain/core"
)

// Matrix is the assembled feature matrix: rows are proteins in ascending
// identifier order, columns are extractor-qualified feature names. Treated
// as read-only after construction.
type Matrix struct {
	rows    []core.ProteinID
	columns []string
	data    *mat.Dense
}

// NewMatrix validates and wraps row IDs, a column schema and row-major cell
// data. Rows must already be sorted by identifier and free of duplicates;
// every cell must be finite.
func NewMatrix(rows []core.ProteinID, columns []string, cells [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(columns) == 0 {
		return nil, core.NewAssemblyError("", "", "matrix must have at least one row and one column")
	}
	if len(cells) != len(rows) {
		return nil, core.NewAssemblyError("", "", fmt.Sprintf("%d row IDs but %d data rows", len(rows), len(cells)))
	}
	if !sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i] < rows[j] }) {
		return nil, core.NewAssemblyError("", "", "rows are not sorted by identifier")
	}
	for i := 1; i < len(rows); i++ {
		if rows[i] == rows[i-1] {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateID, rows[i])
		}
	}

	dense := mat.NewDense(len(rows), len(columns), nil)
	for i, row := range cells {
		if len(row) != len(columns) {
			return nil, core.NewAssemblyError(rows[i], "", fmt.Sprintf("row has %d cells, schema has %d columns", len(row), len(columns)))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, core.NewAssemblyError(rows[i], columns[j], "non-finite cell")
			}
			dense.Set(i, j, v)
		}
	}

	return &Matrix{
		rows:    append([]core.ProteinID(nil), rows...),
		columns: append([]string(nil), columns...),
		data:    dense,
	}, nil
}

// NumRows returns the number of proteins
func (m *Matrix) NumRows() int { return len(m.rows) }

// NumColumns returns the number of features
func (m *Matrix) NumColumns() int { return len(m.columns) }

// RowIDs returns the protein identifiers in row order
func (m *Matrix) RowIDs() []core.ProteinID {
	return append([]core.ProteinID(nil), m.rows...)
}

// Columns returns the extractor-qualified column schema
func (m *Matrix) Columns() []string {
	return append([]string(nil), m.columns...)
}

// At returns one cell
func (m *Matrix) At(i, j int) float64 { return m.data.At(i, j) }

// Row returns a copy of row i's values
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, len(m.columns))
	mat.Row(out, i, m.data)
	return out
}

// RowByID returns the values for one protein, if present
func (m *Matrix) RowByID(id core.ProteinID) ([]float64, bool) {
	idx := sort.Search(len(m.rows), func(i int) bool { return m.rows[i] >= id })
	if idx == len(m.rows) || m.rows[idx] != id {
		return nil, false
	}
	return m.Row(idx), true
}

// Dense exposes the underlying gonum matrix for numeric consumers.
// Callers must not mutate it.
func (m *Matrix) Dense() *mat.Dense { return m.data }

// SchemaEquals reports whether the matrix columns match the given schema by
// name and order.
func (m *Matrix) SchemaEquals(columns []string) bool {
	return SchemaEquals(m.columns, columns)
}

// SplitByExtractor recovers one extractor's original per-protein vectors
// from the assembled matrix by selecting its qualified column block.
func (m *Matrix) SplitByExtractor(extractor string) ([]Vector, error) {
	prefix := extractor + "."
	var idx []int
	var names []string
	for j, col := range m.columns {
		if strings.HasPrefix(col, prefix) {
			idx = append(idx, j)
			names = append(names, strings.TrimPrefix(col, prefix))
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("matrix has no columns from extractor %q", extractor)
	}

	vectors := make([]Vector, len(m.rows))
	for i, id := range m.rows {
		values := make([]float64, len(idx))
		for k, j := range idx {
			values[k] = m.data.At(i, j)
		}
		vectors[i] = Vector{ID: id, Extractor: extractor, Names: names, Values: values}
	}
	return vectors, nil
}

// SelectRows builds a new matrix containing only the given row indices,
// re-sorted into identifier order. Used for train/test partitioning.
func (m *Matrix) SelectRows(indices []int) (*Matrix, error) {
	if len(indices) == 0 {
		return nil, core.NewAssemblyError("", "", "row selection is empty")
	}
	sorted := append([]int(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool { return m.rows[sorted[i]] < m.rows[sorted[j]] })

	rows := make([]core.ProteinID, len(sorted))
	cells := make([][]float64, len(sorted))
	for k, i := range sorted {
		if i < 0 || i >= len(m.rows) {
			return nil, core.NewAssemblyError("", "", fmt.Sprintf("row index %d out of range", i))
		}
		rows[k] = m.rows[i]
		cells[k] = m.Row(i)
	}
	return NewMatrix(rows, m.columns, cells)
}
