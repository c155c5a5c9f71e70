package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Resolution errors. ErrRetrieval is transient and retryable by the
	// caller; ErrNotFound is not.
	ErrNotFound  = errors.New("structure not found")
	ErrRetrieval = errors.New("structure retrieval failed")

	// Per-protein extraction failure; tolerated at batch scope.
	ErrExtraction = errors.New("feature extraction failed")

	// Matrix/schema integrity violations; never silently recovered.
	ErrAssembly       = errors.New("matrix assembly failed")
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// Model misuse
	ErrNotFitted   = errors.New("model is not fitted")
	ErrUnsupported = errors.New("operation not supported by model kind")

	// Run-level failure when too few proteins or classes survive assembly.
	ErrInsufficientData = errors.New("insufficient data for training")

	// Batch integrity
	ErrDuplicateID = errors.New("duplicate protein identifier")
)

// Error constructors with context

func NewNotFoundError(source string, id ProteinID) error {
	return fmt.Errorf("%w: %s has no entry for %s", ErrNotFound, source, id)
}

func NewRetrievalError(source string, id ProteinID, cause error) error {
	return fmt.Errorf("%w: %s for %s: %v", ErrRetrieval, source, id, cause)
}

func NewExtractionError(extractor string, id ProteinID, reason string) error {
	return fmt.Errorf("%w: %s on %s: %s", ErrExtraction, extractor, id, reason)
}

func NewAssemblyError(id ProteinID, column string, reason string) error {
	return fmt.Errorf("%w: protein %s column %q: %s", ErrAssembly, id, column, reason)
}

func NewSchemaMismatchError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, detail)
}

func NewInsufficientDataError(rows, classes int) error {
	return fmt.Errorf("%w: %d rows across %d classes survived assembly", ErrInsufficientData, rows, classes)
}

// Error checking helpers

func IsNotFoundError(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsRetrievalError(err error) bool { return errors.Is(err, ErrRetrieval) }

func IsExtractionError(err error) bool { return errors.Is(err, ErrExtraction) }

// IsBatchTolerable reports whether the orchestrator may record the error in
// the batch report and continue with the remaining proteins.
func IsBatchTolerable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRetrieval) ||
		errors.Is(err, ErrExtraction)
}

// IsIntegrityError reports schema/alignment violations that must always
// propagate; recovering here would corrupt row/label alignment.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrAssembly) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrDuplicateID)
}
