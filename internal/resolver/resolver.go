package resolver

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourbasic/graph"

	"github.com/itsmops/refdata-validator/internal/registry"
	"github.com/itsmops/refdata-validator/pkg/models"
)

// CyclicDependencyError is the only fatal planning error: no valid load
// order exists. Cycles lists the datasets of each dependency cycle.
type CyclicDependencyError struct {
	Cycles [][]string
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		parts[i] = "[" + strings.Join(cycle, ", ") + "]"
	}
	return fmt.Sprintf("cyclic dependency among datasets: %s", strings.Join(parts, "; "))
}

// Resolver computes load plans from a registry's foreign-key declarations
type Resolver struct {
	Logger *logrus.Logger
}

// NewResolver creates a new resolver
func NewResolver(logger *logrus.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Resolve computes a LoadPlan: a total order in which every referenced
// dataset precedes its referents, with ties broken by declaration order,
// plus the stage partition used for concurrent validation. Fails with
// CyclicDependencyError when no valid order exists; no partial plan is
// produced. Self-references do not constrain the order.
func (r *Resolver) Resolve(reg *registry.Registry) (*models.LoadPlan, error) {
	names := reg.Names()
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	// deps[name] holds the datasets that must be validated before name
	deps := make(map[string][]string, len(names))
	g := graph.New(len(names))

	for _, name := range names {
		ds, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		for _, fk := range ds.ForeignKeys {
			target := fk.ReferencedDataset
			if target == name {
				continue
			}
			if _, ok := index[target]; !ok {
				return nil, &registry.UnknownDatasetError{Name: target}
			}
			if !seen[target] {
				seen[target] = true
				deps[name] = append(deps[name], target)
				g.Add(index[target], index[name])
			}
		}
	}

	if !graph.Acyclic(g) {
		return nil, r.cycleError(g, names)
	}

	placed := make(map[string]bool, len(names))
	order := make([]string, 0, len(names))

	// Repeatedly take the first declared dataset whose dependencies are
	// all placed. Quadratic, but registries are small and the result is
	// reproducible across runs.
	for len(order) < len(names) {
		progressed := false
		for _, name := range names {
			if placed[name] {
				continue
			}
			ready := true
			for _, dep := range deps[name] {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, name)
				placed[name] = true
				progressed = true
				break
			}
		}
		if !progressed {
			// Unreachable after the acyclicity check
			return nil, r.cycleError(g, names)
		}
	}

	stages := buildStages(names, deps)

	if r.Logger != nil {
		r.Logger.Infof("Resolved load plan: %d datasets in %d stages", len(order), len(stages))
		r.Logger.Debugf("Load order: %s", strings.Join(order, " -> "))
	}

	return &models.LoadPlan{Order: order, Stages: stages}, nil
}

// buildStages partitions datasets by dependency depth: stage 0 holds
// datasets with no dependencies, each later stage those whose dependencies
// are all in earlier stages. Datasets within a stage share no ordering
// constraint and may be validated concurrently.
func buildStages(names []string, deps map[string][]string) [][]string {
	assigned := make(map[string]bool, len(names))
	var stages [][]string

	for len(assigned) < len(names) {
		var stage []string
		for _, name := range names {
			if assigned[name] {
				continue
			}
			ready := true
			for _, dep := range deps[name] {
				if !assigned[dep] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, name)
			}
		}
		for _, name := range stage {
			assigned[name] = true
		}
		stages = append(stages, stage)
	}

	return stages
}

// cycleError extracts the strongly connected components with more than one
// member and names every dataset involved
func (r *Resolver) cycleError(g *graph.Mutable, names []string) *CyclicDependencyError {
	var cycles [][]string
	for _, component := range graph.StrongComponents(g) {
		if len(component) < 2 {
			continue
		}
		cycle := make([]string, 0, len(component))
		// Report members in declaration order
		member := make(map[int]bool, len(component))
		for _, v := range component {
			member[v] = true
		}
		for i, name := range names {
			if member[i] {
				cycle = append(cycle, name)
			}
		}
		cycles = append(cycles, cycle)
	}

	err := &CyclicDependencyError{Cycles: cycles}
	if r.Logger != nil {
		r.Logger.Errorf("Dependency resolution failed: %v", err)
	}
	return err
}
