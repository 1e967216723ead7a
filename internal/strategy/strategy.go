// Package strategy defines the Strategy interface for backtest trading
// policies and provides a Registry for managing multiple implementations.
//
// Two incompatible signal-generation designs exist in this repository: the
// regime-conditioned adaptive policy and the regime-agnostic weighted-vote
// policy. Neither subsumes the other; they are kept as distinct strategies
// selected by name.
package strategy

import (
	"sort"

	"coinrich/internal/domain"
	"coinrich/internal/indicator"
	"coinrich/internal/regime"
)

// Position is the open-position context a strategy may consult when
// evaluating an exit: where and at what price the position was opened, and
// the highest close seen since entry (for trailing logic).
type Position struct {
	EntryIndex int
	EntryPrice float64
	PeakClose  float64
}

// Strategy is the policy interface the simulator drives.
//
// EntrySignals is computed once over the whole input; the value at index i
// must be a pure function of bars [0..i]. ExitSignal is evaluated per bar
// while a position is open, because take-profit, stop-loss, and trailing
// exits depend on position state; it must likewise only consult bars
// [0..i].
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Frame computes the indicator series this strategy needs.
	Frame(bars []domain.Bar) *indicator.Frame

	// Regime classifies each bar of the frame. Strategies that ignore market
	// regime still return labels so results can be segmented by market state.
	Regime(f *indicator.Frame) *regime.Labels

	// EntrySignals returns the per-bar buy signal series.
	EntrySignals(f *indicator.Frame, labels *regime.Labels) []bool

	// ExitSignal reports whether the open position should be closed at bar i.
	ExitSignal(f *indicator.Frame, labels *regime.Labels, i int, pos Position) bool
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with both built-in strategies
// registered under their default parameters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewAdaptive(DefaultAdaptiveParams()))
	r.Register(NewWeighted(DefaultWeightedParams()))
	return r
}
