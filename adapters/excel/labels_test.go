package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"enzclass/domain/core"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write CSV fixture: %v", err)
	}
	return path
}

func TestLabelReader_CSVWithHeaders(t *testing.T) {
	path := writeCSV(t, "pdb_id,ec_class\n1LYZ,3\n1tim,5\n\n1crn,0\n")

	set, err := NewLabelReader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())

	// identifiers are lowercased on entry
	class, ok := set.Get("1lyz")
	assert.True(t, ok)
	assert.Equal(t, "3", string(class))

	_, ok = set.Get("9zzz")
	assert.False(t, ok)
}

func TestLabelReader_CSVPositionalColumns(t *testing.T) {
	path := writeCSV(t, "structure,enzyme\n1abc,1\n2def,2\n")

	set, err := NewLabelReader(path).Load(context.Background())
	require.NoError(t, err)

	class, ok := set.Get("1abc")
	assert.True(t, ok)
	assert.Equal(t, "1", string(class))
}

func TestLabelReader_CSVReorderedHeaders(t *testing.T) {
	path := writeCSV(t, "ec_class,notes,protein_id\n4,hydrolase,1abc\n")

	set, err := NewLabelReader(path).Load(context.Background())
	require.NoError(t, err)

	class, ok := set.Get("1abc")
	assert.True(t, ok)
	assert.Equal(t, "4", string(class))
}

func TestLabelReader_DuplicateIDsAreFatal(t *testing.T) {
	path := writeCSV(t, "pdb_id,ec_class\n1abc,1\n1ABC,2\n")

	_, err := NewLabelReader(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDuplicateID))
}

func TestLabelReader_MissingFile(t *testing.T) {
	_, err := NewLabelReader("/nonexistent/labels.csv").Load(context.Background())
	require.Error(t, err)
}

func TestLabelReader_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "pdb_id,ec_class\n")
	_, err := NewLabelReader(path).Load(context.Background())
	require.Error(t, err)
}

func TestLabelReader_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"protein_id", "ec_class"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"1lyz", "3"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"1tim", "5"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	set, err := NewLabelReader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, set.Len())
	class, ok := set.Get("1tim")
	assert.True(t, ok)
	assert.Equal(t, "5", string(class))
}
