package ports

import (
	"context"

	"enzclass/domain/core"
	"enzclass/domain/protein"
)

// DataSource resolves a protein identifier into a locally materialized
// structure record for one structure provenance.
//
// Resolve signals core.ErrNotFound when the identifier does not exist at
// the source and core.ErrRetrieval for transient I/O failure, so the
// orchestrator can retry the latter but not the former. Sources may cache
// materialized files; re-resolving an identifier with a valid local copy
// returns an equivalent record without re-fetching.
type DataSource interface {
	Name() string
	Provenance() protein.Provenance
	Resolve(ctx context.Context, id core.ProteinID) (protein.StructureRecord, error)
}
