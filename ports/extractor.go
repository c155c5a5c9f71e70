package ports

import (
	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/protein"
)

// Extractor turns one structure (plus sequence) into a fixed-length named
// feature vector.
//
// FeatureNames must be stable and callable before any extraction so a batch
// can validate schemas up front, and its length always equals the length of
// every Extract output. Extractors are stateless across calls: batch order
// never affects an individual result. Extract signals core.ErrExtraction
// naming the identifier when required data is absent or malformed; the
// orchestrator tolerates this per protein.
type Extractor interface {
	Name() string
	FeatureNames() []string
	Extract(id core.ProteinID, s *protein.Structure) (feature.Vector, error)
}
