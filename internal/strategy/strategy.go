// Package strategy defines the per-bar decision contract for trading
// strategies and provides a Registry of the built-in implementations.
package strategy

import (
	"fmt"
	"log/slog"
	"sort"

	"tidemark/internal/domain"
)

// Strategy is the decision side of a backtest. The driver calls Next once
// per bar, in order; the strategy may return at most one order intent per
// call and must check state.PendingOrder before submitting another. All
// decision state (hold-day counters, indicator readings) is private to the
// instance and advances only through Next.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Init performs any one-time setup before the first bar.
	Init() error

	// Next consumes one bar together with the current portfolio state and
	// returns an order intent, or nil to do nothing this bar.
	Next(bar domain.Bar, state domain.PortfolioState) *domain.Intent

	// OnOrder notifies the strategy of an order status change (filled or
	// rejected) within the same bar's processing step.
	OnOrder(order domain.Order)

	// Stop is called once after the last bar with the final portfolio
	// state. Purely observational.
	Stop(state domain.PortfolioState)
}

// Params carries per-strategy tuning values parsed from configuration.
type Params map[string]float64

// Get returns the parameter value or def when the key is absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Factory builds a fresh strategy instance. Batch runs call it once per
// instrument so no decision state leaks between runs.
type Factory func(p Params, log *slog.Logger) Strategy

// Registry holds a named collection of strategy factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New builds a fresh instance of the named strategy.
func (r *Registry) New(name string, p Params, log *slog.Logger) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f(p, log), nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a Registry with all built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("spread-expansion", func(p Params, log *slog.Logger) Strategy {
		return NewSpreadExpansion(p, log)
	})
	r.Register("composite", func(p Params, log *slog.Logger) Strategy {
		return NewComposite(p, log)
	})
	r.Register("multi-factor", func(p Params, log *slog.Logger) Strategy {
		return NewMultiFactor(p, log)
	})
	r.Register("price-volume", func(p Params, log *slog.Logger) Strategy {
		return NewPriceVolume(p, log)
	})
	r.Register("sma-cross", func(p Params, log *slog.Logger) Strategy {
		return NewSMACross(p, log)
	})
	return r
}
