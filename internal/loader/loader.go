package loader

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/itsmops/refdata-validator/internal/integrity"
	"github.com/itsmops/refdata-validator/internal/quality"
	"github.com/itsmops/refdata-validator/internal/registry"
	"github.com/itsmops/refdata-validator/internal/resolver"
	"github.com/itsmops/refdata-validator/internal/source"
	"github.com/itsmops/refdata-validator/pkg/models"
)

// Loader drives one validation run: plan, then fetch and validate each
// dataset in plan order, accumulating findings into a single report.
type Loader struct {
	Registry  *registry.Registry
	Source    source.Source
	Resolver  *resolver.Resolver
	Quality   *quality.Gate
	Integrity *integrity.Checker
	Logger    *logrus.Logger
}

// NewLoader wires a loader from its collaborators
func NewLoader(reg *registry.Registry, src source.Source, logger *logrus.Logger) *Loader {
	return &Loader{
		Registry:  reg,
		Source:    src,
		Resolver:  resolver.NewResolver(logger),
		Quality:   quality.NewGate(logger),
		Integrity: integrity.NewChecker(logger),
		Logger:    logger,
	}
}

// Result is the outcome of a successful run: the full report plus the
// validated, ordered table set for downstream consumers.
type Result struct {
	Plan   *models.LoadPlan
	Report *models.ValidationReport
	Tables map[string]models.Table
	States map[string]models.DatasetState
}

// Table returns a validated table by dataset name
func (r *Result) Table(name string) (models.Table, bool) {
	t, ok := r.Tables[name]
	return t, ok
}

// stageResult carries one dataset's outcome out of its validation goroutine
type stageResult struct {
	name       string
	table      models.Table
	violations []models.Violation
	keys       map[string]struct{}
}

// Run executes the pipeline. Planning errors are fatal and abort the run
// with no partial result; quality and join violations only accumulate in
// the report. Datasets within one plan stage are validated concurrently;
// each dataset's primary-key set is published exactly once, after its
// stage completes, and read only by later stages.
func (l *Loader) Run(ctx context.Context) (*Result, error) {
	plan, err := l.Resolver.Resolve(l.Registry)
	if err != nil {
		return nil, err
	}

	report := models.NewValidationReport()
	report.Order = plan.Order

	result := &Result{
		Plan:   plan,
		Report: report,
		Tables: make(map[string]models.Table, len(plan.Order)),
		States: make(map[string]models.DatasetState, len(plan.Order)),
	}
	for _, name := range plan.Order {
		result.States[name] = models.DatasetPending
	}

	publishedKeys := make(map[string]map[string]struct{}, len(plan.Order))

	for i, stage := range plan.Stages {
		l.Logger.Infof("Validating stage %d/%d: %v", i+1, len(plan.Stages), stage)

		var mu sync.Mutex
		var outcomes []stageResult

		// Mark the whole stage before launching any goroutine; the state
		// map is only written from goroutines under mu after this point
		for _, name := range stage {
			result.States[name] = models.DatasetLoading
		}

		g, stageCtx := errgroup.WithContext(ctx)
		for _, name := range stage {
			name := name
			g.Go(func() error {
				out, err := l.validateDataset(stageCtx, name, publishedKeys)
				if err != nil {
					mu.Lock()
					result.States[name] = models.DatasetFailed
					mu.Unlock()
					return err
				}
				mu.Lock()
				outcomes = append(outcomes, out)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Publish key sets once per dataset, after the whole stage has
		// finished reading the previous ones
		for _, out := range outcomes {
			publishedKeys[out.name] = out.keys
			result.Tables[out.name] = out.table
			result.States[out.name] = models.DatasetValidated
			report.Add(out.name, out.violations...)
		}
	}

	report.FinishedAt = time.Now().UTC()
	l.Logger.Infof("Run %s complete: %d datasets validated, %d violation(s)",
		report.RunID, len(result.Tables), report.TotalViolations())
	return result, nil
}

// validateDataset fetches one dataset and runs both checkers. The quality
// gate and join integrity checker read disjoint invariants and could run
// concurrently themselves; they are cheap enough that sequencing them per
// dataset keeps the stage fan-out as the only concurrency.
func (l *Loader) validateDataset(ctx context.Context, name string, publishedKeys map[string]map[string]struct{}) (stageResult, error) {
	ds, err := l.Registry.Lookup(name)
	if err != nil {
		return stageResult{}, err
	}

	table, err := l.Source.Fetch(ctx, name)
	if err != nil {
		l.Logger.Errorf("Failed to fetch dataset %s: %v", name, err)
		return stageResult{}, err
	}

	violations := l.Quality.Check(ds, table)
	violations = append(violations, l.Integrity.Check(ds, table, publishedKeys)...)
	quality.SortViolations(violations)

	return stageResult{
		name:       name,
		table:      table,
		violations: violations,
		keys:       l.Quality.KeySet(ds, table),
	}, nil
}
