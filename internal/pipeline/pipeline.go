package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/label"
	"enzclass/domain/protein"
	"enzclass/domain/run"
	"enzclass/internal"
	"enzclass/internal/assemble"
	"enzclass/ports"
)

// Defaults for optional configuration
const (
	defaultConcurrency = 4
	defaultMinRows     = 2
	defaultMaxRetries  = 1
)

// Config wires one pipeline run
type Config struct {
	IDs        []string
	Source     ports.DataSource
	Analyzer   ports.StructureAnalyzer
	Extractors []ports.Extractor
	Model      ports.Model
	Labels     *label.Set
	Ledger     ports.RunLedger // optional; run records are stored when set
	Logger     *internal.Logger

	TrainRatio  float64
	Seed        int64
	MinRows     int // minimum surviving rows; below this the run fails
	MaxRetries  int // retries for transient retrieval failures
	Concurrency int // parallel per-protein resolution/extraction
}

// Pipeline drives one batch: resolve structures, run all configured
// extractors, assemble the matrix, split, train, evaluate. Per-protein
// failures are collected into the run record instead of aborting the batch;
// only integrity violations and insufficient surviving data are fatal.
type Pipeline struct {
	cfg       Config
	assembler *assemble.Assembler
}

// New validates the wiring and establishes the column schema up front from
// the extractors' declared feature names.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("pipeline requires a data source")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("pipeline requires a structure analyzer")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("pipeline requires a model")
	}
	if cfg.Labels == nil {
		return nil, fmt.Errorf("pipeline requires a label set")
	}
	asm, err := assemble.New(cfg.Extractors...)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = internal.DefaultLogger
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = defaultMinRows
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Pipeline{cfg: cfg, assembler: asm}, nil
}

// extractionOutcome is the per-protein result of the parallel stage
type extractionOutcome struct {
	id      core.ProteinID
	vectors map[string]feature.Vector
	// failure bookkeeping
	resolutionErr error
	extractorErrs map[string]error
}

// Run executes the batch and always produces a run record, stored in the
// ledger when one is configured, whether the run succeeds or fails.
func (p *Pipeline) Run(ctx context.Context) (*run.Record, error) {
	rec := &run.Record{
		ID:         core.NewRunID(),
		StartedAt:  time.Now().UTC(),
		Source:     p.cfg.Source.Name(),
		ModelKind:  p.cfg.Model.Kind(),
		Seed:       p.cfg.Seed,
		TrainRatio: p.cfg.TrainRatio,
	}
	for _, ex := range p.cfg.Extractors {
		rec.Extractors = append(rec.Extractors, ex.Name())
	}

	err := p.run(ctx, rec)
	rec.FinishedAt = time.Now().UTC()
	if err != nil {
		rec.Error = err.Error()
		if core.IsIntegrityError(err) {
			p.cfg.Logger.Error("[Pipeline] run %s aborted on integrity violation: %v", rec.ID, err)
		}
	}
	p.store(ctx, rec)
	return rec, err
}

func (p *Pipeline) run(ctx context.Context, rec *run.Record) error {
	ids, err := p.parseIDs()
	if err != nil {
		return err
	}
	rec.Candidates = len(ids)
	p.cfg.Logger.Info("[Pipeline] run %s: %d candidates, source=%s, model=%s",
		rec.ID, len(ids), rec.Source, rec.ModelKind)

	outcomes := p.resolveAndExtract(ctx, ids)

	// Resolution failures never reach the assembler; record them here.
	vectors := make(map[core.ProteinID]map[string]feature.Vector)
	extractorErrs := make(map[core.ProteinID]map[string]error)
	for _, out := range outcomes {
		if out.resolutionErr != nil {
			// Only taxonomy errors may be absorbed into the batch report.
			// A source returning anything else is a contract violation and
			// aborts the run.
			if !core.IsBatchTolerable(out.resolutionErr) {
				p.sortExclusions(rec)
				return fmt.Errorf("source %s failed on %s: %w", rec.Source, out.id, out.resolutionErr)
			}
			reason := run.ReasonRetrievalFailed
			if core.IsNotFoundError(out.resolutionErr) {
				reason = run.ReasonNotFound
			}
			rec.Exclusions = append(rec.Exclusions, run.Exclusion{
				ID:     out.id,
				Stage:  run.StageResolution,
				Reason: reason,
				Detail: out.resolutionErr.Error(),
			})
			continue
		}
		vectors[out.id] = out.vectors
		if len(out.extractorErrs) > 0 {
			extractorErrs[out.id] = out.extractorErrs
		}
	}

	if len(vectors) == 0 {
		p.sortExclusions(rec)
		return core.NewInsufficientDataError(0, 0)
	}

	result, err := p.assembler.Assemble(vectors, p.cfg.Labels)
	if result != nil {
		rec.Exclusions = append(rec.Exclusions, p.withDetails(result.Exclusions, extractorErrs)...)
	}
	p.sortExclusions(rec)
	if err != nil {
		return err
	}
	rec.Rows = result.Matrix.NumRows()

	distinct := label.DistinctClasses(result.Classes)
	if rec.Rows < p.cfg.MinRows || distinct < 2 {
		return core.NewInsufficientDataError(rec.Rows, distinct)
	}
	p.cfg.Logger.Info("[Pipeline] assembled %dx%d matrix, %d classes, %d excluded",
		rec.Rows, result.Matrix.NumColumns(), distinct, len(rec.Exclusions))

	part, err := Split(result.Matrix, result.Classes, SplitConfig{
		TrainRatio: p.cfg.TrainRatio,
		Seed:       p.cfg.Seed,
		Stratified: true,
	})
	if err != nil {
		return err
	}

	if err := p.cfg.Model.Train(part.Train, part.TrainClasses); err != nil {
		return err
	}
	report, err := p.cfg.Model.Evaluate(part.Test, part.TestClasses)
	if err != nil {
		return err
	}
	rec.Report = report
	p.cfg.Logger.Info("[Pipeline] run %s done: accuracy=%.3f on %d held-out rows",
		rec.ID, report.Accuracy, report.NumSamples)
	return nil
}

// parseIDs normalizes candidate identifiers; duplicates within a batch are
// a hard error because the ID is the join key for every later stage.
func (p *Pipeline) parseIDs() ([]core.ProteinID, error) {
	if len(p.cfg.IDs) == 0 {
		return nil, fmt.Errorf("pipeline run has no candidate identifiers")
	}
	seen := make(map[core.ProteinID]bool, len(p.cfg.IDs))
	ids := make([]core.ProteinID, 0, len(p.cfg.IDs))
	for _, raw := range p.cfg.IDs {
		id, err := core.ParseProteinID(raw)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateID, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveAndExtract runs resolution, analysis and all extractors per
// protein in parallel. Proteins share no mutable state, so the only
// ordering requirement is the deterministic reassembly afterwards; one
// protein's failure never affects another's result.
func (p *Pipeline) resolveAndExtract(ctx context.Context, ids []core.ProteinID) []extractionOutcome {
	outcomes := make([]extractionOutcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			// Each worker owns one slot; failures live in the outcome,
			// never in the group error.
			outcomes[i] = p.processOne(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// processOne handles one protein end to end
func (p *Pipeline) processOne(ctx context.Context, id core.ProteinID) extractionOutcome {
	out := extractionOutcome{id: id}

	record, err := p.resolveWithRetry(ctx, id)
	if err != nil {
		p.cfg.Logger.Warn("[Pipeline] %s: resolution failed: %v", id, err)
		out.resolutionErr = err
		return out
	}

	structure, err := p.cfg.Analyzer.Analyze(ctx, record)
	if err != nil {
		// No usable structural analysis means no extractor can run;
		// treated like a retrieval failure for reporting purposes.
		p.cfg.Logger.Warn("[Pipeline] %s: structural analysis failed: %v", id, err)
		out.resolutionErr = core.NewRetrievalError("analyzer", id, err)
		return out
	}

	out.vectors = make(map[string]feature.Vector, len(p.cfg.Extractors))
	out.extractorErrs = make(map[string]error)
	for _, ex := range p.cfg.Extractors {
		vec, err := ex.Extract(id, structure)
		if err != nil {
			p.cfg.Logger.Warn("[Pipeline] %s: %s extraction failed: %v", id, ex.Name(), err)
			out.extractorErrs[ex.Name()] = err
			continue
		}
		out.vectors[ex.Name()] = vec
	}
	return out
}

// resolveWithRetry retries transient retrieval failures but not missing
// identifiers.
func (p *Pipeline) resolveWithRetry(ctx context.Context, id core.ProteinID) (protein.StructureRecord, error) {
	var record protein.StructureRecord
	var err error
	for attempt := 0; ; attempt++ {
		record, err = p.cfg.Source.Resolve(ctx, id)
		if err == nil {
			return record, nil
		}
		if !core.IsRetrievalError(err) || attempt >= p.cfg.MaxRetries {
			return record, err
		}
		p.cfg.Logger.Debug("[Pipeline] %s: retrying after transient failure (attempt %d)", id, attempt+1)
	}
}

// withDetails copies extractor error messages into the matching assembler
// exclusions so the run record names the concrete failure.
func (p *Pipeline) withDetails(exclusions []run.Exclusion, errs map[core.ProteinID]map[string]error) []run.Exclusion {
	out := make([]run.Exclusion, len(exclusions))
	for i, e := range exclusions {
		if byEx, ok := errs[e.ID]; ok {
			for _, ex := range p.cfg.Extractors {
				if err, failed := byEx[ex.Name()]; failed {
					e.Detail = err.Error()
					break
				}
			}
		}
		out[i] = e
	}
	return out
}

func (p *Pipeline) sortExclusions(rec *run.Record) {
	sort.Slice(rec.Exclusions, func(i, j int) bool {
		return rec.Exclusions[i].ID < rec.Exclusions[j].ID
	})
}

// store persists the run record when a ledger is configured. Ledger
// failures are logged, never fatal: the record is still returned to the
// caller.
func (p *Pipeline) store(ctx context.Context, rec *run.Record) {
	if p.cfg.Ledger == nil {
		return
	}
	if err := p.cfg.Ledger.StoreRun(ctx, rec); err != nil {
		p.cfg.Logger.Warn("[Pipeline] failed to store run %s: %v", rec.ID, err)
	}
}
