package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ProteinID uniquely names one protein/structure within a batch. It is the
// join key across resolution, extraction, assembly and labeling.
type ProteinID string

// ParseProteinID normalizes and validates a raw identifier token.
// PDB-style codes are case-insensitive, so IDs are lowercased on entry.
func ParseProteinID(s string) (ProteinID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("protein ID cannot be empty")
	}
	return ProteinID(strings.ToLower(s)), nil
}

// String returns the string representation
func (id ProteinID) String() string { return string(id) }

// IsEmpty checks if the ID is empty
func (id ProteinID) IsEmpty() bool { return id == "" }

// RunID identifies one pipeline run
type RunID string

// NewRunID creates a new unique run identifier using UUID v7 for
// time-ordered generation, falling back to v4.
func NewRunID() RunID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return RunID(id.String())
}

// String returns the string representation
func (id RunID) String() string { return string(id) }
