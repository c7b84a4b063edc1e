package engine

import (
	"fmt"
	"sort"
)

const (
	StrategyLinear = "linear"
	StrategyGraph  = "graph"

	// DefaultStrategy is used when a caller names no strategy. The graph
	// strategy is canonical; linear survives as a variant for the simple
	// single-pipeline case.
	DefaultStrategy = StrategyGraph
)

// Registry selects an execution strategy by name.
type Registry struct {
	executors map[string]Executor
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		executors: map[string]Executor{
			StrategyLinear: NewLinearExecutor(deps),
			StrategyGraph:  NewGraphExecutor(deps),
		},
	}
}

// Get returns the executor registered under name. An empty name selects the
// default strategy.
func (r *Registry) Get(name string) (Executor, error) {
	if name == "" {
		name = DefaultStrategy
	}

	executor, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("unknown execution strategy: %q", name)
	}

	return executor, nil
}

// Strategies lists the registered strategy names in stable order.
func (r *Registry) Strategies() []string {
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
