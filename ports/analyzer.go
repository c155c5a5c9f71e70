package ports

import (
	"context"

	"enzclass/domain/protein"
)

// StructureAnalyzer is the structural-analysis boundary: it turns a
// materialized structure record into the sequence and precomputed
// per-residue annotations produced by an external geometry toolkit.
// The core never performs geometric computation itself.
type StructureAnalyzer interface {
	Analyze(ctx context.Context, rec protein.StructureRecord) (*protein.Structure, error)
}
