package run

import (
	"time"

	"enzclass/domain/core"
	"enzclass/domain/eval"
)

// Stage names where a protein can drop out of a run
const (
	StageResolution = "resolution"
	StageExtraction = "extraction"
	StageAssembly   = "assembly"
)

// Exclusion reasons. Extraction failures are qualified with the extractor
// identity, e.g. "extraction_failed:secondary_structure".
const (
	ReasonNoLabel          = "no_label"
	ReasonNotFound         = "not_found"
	ReasonRetrievalFailed  = "retrieval_failed"
	ReasonExtractionFailed = "extraction_failed"
)

// Exclusion records one protein skipped during a run and why. Exclusions
// are informational; they never abort the batch.
type Exclusion struct {
	ID     core.ProteinID `json:"id"`
	Stage  string         `json:"stage"`
	Reason string         `json:"reason"`
	Detail string         `json:"detail,omitempty"`
}

// Record is the durable summary of one pipeline run: configuration echo,
// survivor counts, every exclusion, and the evaluation report when the run
// reached training.
type Record struct {
	ID         core.RunID   `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Source     string       `json:"source"`
	Extractors []string     `json:"extractors"`
	ModelKind  string       `json:"model_kind"`
	Seed       int64        `json:"seed"`
	TrainRatio float64      `json:"train_ratio"`
	Candidates int          `json:"candidates"`
	Rows       int          `json:"rows"`
	Exclusions []Exclusion  `json:"exclusions"`
	Report     *eval.Report `json:"report,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Excluded reports whether the given protein was skipped
func (r *Record) Excluded(id core.ProteinID) (Exclusion, bool) {
	for _, e := range r.Exclusions {
		if e.ID == id {
			return e, true
		}
	}
	return Exclusion{}, false
}
