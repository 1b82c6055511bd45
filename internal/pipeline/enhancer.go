// Package pipeline drives one enhancement run end to end: parse,
// formal context, lattice, scoring, completion, subsumption, naming,
// rewriting, evaluation, output.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"abstractor/internal/abstraction"
	"abstractor/internal/config"
	"abstractor/internal/evaluate"
	"abstractor/internal/fca"
	"abstractor/internal/generator"
	"abstractor/internal/model"
	"abstractor/internal/naming"
	"abstractor/internal/parser"
	"abstractor/internal/rewrite"
	"abstractor/internal/storage"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConceptSource computes the concept lattice of a formal context. The
// production implementation shells out to the external tool; tests
// substitute a fixed concept list.
type ConceptSource interface {
	Compute(ctx context.Context, fctx *fca.Context, workDir string) ([]fca.RawConcept, error)
}

// Enhancer holds the collaborators for one or more runs. Runs share no
// mutable state besides the naming adapter's cache.
type Enhancer struct {
	cfg    *config.Config
	source ConceptSource
	namer  *naming.Adapter
	store  *storage.Store
	log    *zap.Logger
}

// Result is everything one run produced.
type Result struct {
	RunID      string
	Model      *model.ClassModel
	Diagram    string
	Candidates []*abstraction.Candidate
	Named      []naming.Result
	Records    []evaluate.Record
}

func NewEnhancer(cfg *config.Config, source ConceptSource, namer *naming.Adapter, store *storage.Store, log *zap.Logger) *Enhancer {
	return &Enhancer{
		cfg:    cfg,
		source: source,
		namer:  namer,
		store:  store,
		log:    log,
	}
}

// Run enhances the diagram at sourcePath and writes the enhanced
// diagram and evaluation report under the configured output dir.
// Nothing is written if any stage fails.
func (e *Enhancer) Run(ctx context.Context, sourcePath string) (*Result, error) {
	m, err := parser.New().ParseFile(sourcePath)
	if err != nil {
		return nil, errors.Wrap(err, "parse stage")
	}
	e.log.Info("parsed diagram",
		zap.String("source", sourcePath),
		zap.Int("classes", len(m.Classes)),
		zap.Int("relationships", len(m.Relationships)),
	)

	repo, fctx, err := e.latticeStage(ctx, m)
	if err != nil {
		return nil, err
	}

	candidates := e.resolveStage(m, repo, fctx)
	e.log.Info("resolved candidates", zap.Int("count", len(candidates)))

	named, reporter := e.namingStage(ctx, m, candidates)

	if err := rewrite.NewRewriter(m).Apply(candidates); err != nil {
		return nil, errors.Wrap(err, "rewrite stage")
	}

	result := &Result{
		RunID:      uuid.New().String(),
		Model:      m,
		Diagram:    generator.New().Generate(m),
		Candidates: candidates,
		Named:      named,
		Records:    reporter.Records(),
	}

	if err := e.emitStage(ctx, sourcePath, result, reporter); err != nil {
		return nil, err
	}
	return result, nil
}

// latticeStage builds the formal context, runs the external tool, and
// validates the returned concepts.
func (e *Enhancer) latticeStage(ctx context.Context, m *model.ClassModel) (*fca.Repository, *fca.Context, error) {
	fctx, err := fca.BuildContext(m)
	if err != nil {
		return nil, nil, errors.Wrap(err, "context stage")
	}

	workDir, err := os.MkdirTemp("", "abstractor-lattice-")
	if err != nil {
		return nil, nil, errors.Wrap(err, "lattice stage")
	}
	defer os.RemoveAll(workDir)

	raw, err := e.source.Compute(ctx, fctx, workDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "lattice stage")
	}
	e.log.Info("lattice computed", zap.Int("concepts", len(raw)))

	repo, err := fca.NewRepository(fctx, raw)
	if err != nil {
		return nil, nil, errors.Wrap(err, "concept import stage")
	}
	return repo, fctx, nil
}

// resolveStage scores, completes, and deduplicates concepts into the
// final candidate list.
func (e *Enhancer) resolveStage(m *model.ClassModel, repo *fca.Repository, fctx *fca.Context) []*abstraction.Candidate {
	cfg := fca.ScoreConfig{
		RelevanceThreshold: e.cfg.Analysis.RelevanceThreshold,
		MinExtentSize:      e.cfg.Analysis.MinExtentSize,
	}

	scorer := fca.NewScorer(repo)
	accepted, deferred := scorer.Filter(repo, cfg)
	completed := fca.NewCompleter(repo, fctx, scorer).Complete(deferred, cfg)
	e.log.Info("scored concepts",
		zap.Int("accepted", len(accepted)),
		zap.Int("completed", len(completed)),
	)

	surviving := append(accepted, completed...)
	return abstraction.NewResolver(m).Resolve(surviving)
}

// namingStage assigns a name to each candidate and scores it. Naming
// never fails the run. Existing class names are reserved first so a
// generated name cannot replace a concrete class.
func (e *Enhancer) namingStage(ctx context.Context, m *model.ClassModel, candidates []*abstraction.Candidate) ([]naming.Result, *evaluate.Reporter) {
	e.namer.Reserve(m.ClassNames()...)
	reporter := evaluate.NewReporter()
	named := make([]naming.Result, 0, len(candidates))

	for i, cand := range candidates {
		res := e.namer.Resolve(ctx, naming.Request{
			Extent: cand.SortedExtent(),
			Intent: cand.SortedIntent(),
		})
		cand.Name = res.Name
		named = append(named, res)
		e.log.Info("named candidate",
			zap.String("name", res.Name),
			zap.String("source", res.Source),
			zap.Int("extent", len(cand.Extent)),
		)
		reporter.Evaluate(fmt.Sprintf("c%d", i+1), cand, res)
	}
	return named, reporter
}

// emitStage writes the output artifacts and persists the run. It only
// runs after the elision invariant has been verified.
func (e *Enhancer) emitStage(ctx context.Context, sourcePath string, result *Result, reporter *evaluate.Reporter) error {
	outDir := e.cfg.Output.Dir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "emit stage")
	}

	diagramPath := filepath.Join(outDir, "enhanced.puml")
	if err := os.WriteFile(diagramPath, []byte(result.Diagram), 0o644); err != nil {
		return errors.Wrap(err, "write enhanced diagram")
	}

	reportPath := filepath.Join(outDir, "evaluation.csv")
	if err := reporter.WriteFile(reportPath); err != nil {
		return errors.Wrap(err, "write evaluation report")
	}

	e.log.Info("wrote artifacts",
		zap.String("diagram", diagramPath),
		zap.String("report", reportPath),
	)

	if e.store == nil {
		return nil
	}

	run := &storage.Run{
		ID:         result.RunID,
		SourcePath: sourcePath,
		CreatedAt:  time.Now().UTC(),
		Threshold:  e.cfg.Analysis.RelevanceThreshold,
		MinExtent:  e.cfg.Analysis.MinExtentSize,
		Diagram:    result.Diagram,
		Records:    result.Records,
	}
	for i, cand := range result.Candidates {
		run.Candidates = append(run.Candidates, storage.StoredCandidate{
			Name:       cand.Name,
			Extent:     cand.SortedExtent(),
			Intent:     cand.SortedIntent(),
			Relevance:  cand.Relevance,
			Confidence: result.Named[i].Confidence,
			Source:     result.Named[i].Source,
		})
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return errors.Wrap(err, "persist run")
	}
	return nil
}
