package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"enzclass/domain/core"
	"enzclass/domain/label"
)

// Recognized header names for the identifier and class columns. When no
// header matches, the first two columns are used in order.
var (
	idHeaders    = []string{"protein_id", "pdb_id", "id"}
	classHeaders = []string{"ec_class", "class", "label"}
)

// LabelReader loads an identifier-to-EC-class table from an Excel or CSV
// file. Duplicate identifiers are a hard error.
type LabelReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewLabelReader creates a reader that handles both Excel and CSV tables
func NewLabelReader(filePath string) *LabelReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &LabelReader{filePath: filePath, fileType: fileType}
}

// Load reads the label table into an immutable label set
func (r *LabelReader) Load(_ context.Context) (*label.Set, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("label file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported label file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("label file must have a header row and at least one data row")
	}

	idCol, classCol := detectColumns(rows[0])
	var pairs []label.Pair
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= idCol || len(row) <= classCol {
			continue // short row, nothing to join on
		}
		rawID := strings.TrimSpace(row[idCol])
		rawClass := strings.TrimSpace(row[classCol])
		if rawID == "" && rawClass == "" {
			continue
		}
		id, err := core.ParseProteinID(rawID)
		if err != nil {
			return nil, fmt.Errorf("label row %d: %w", i+1, err)
		}
		pairs = append(pairs, label.Pair{ID: id, Class: label.Class(rawClass)})
	}

	set, err := label.NewSet(pairs)
	if err != nil {
		return nil, err
	}
	log.Printf("[Labels] loaded %d labels across %d classes from %s",
		set.Len(), len(set.Classes()), r.filePath)
	return set, nil
}

func (r *LabelReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	return rows, nil
}

func (r *LabelReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// detectColumns finds the identifier and class columns by header name,
// falling back to positional columns 0 and 1.
func detectColumns(header []string) (idCol, classCol int) {
	idCol, classCol = 0, 1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for _, candidate := range idHeaders {
			if name == candidate {
				idCol = i
			}
		}
		for _, candidate := range classHeaders {
			if name == candidate {
				classCol = i
			}
		}
	}
	return idCol, classCol
}
