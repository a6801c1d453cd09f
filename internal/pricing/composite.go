package pricing

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Component is one constituent of a composite instrument: a ticker and its
// weight within the composition, as a percentage.
type Component struct {
	Ticker string
	Weight float64
	Class  AssetClass
}

// CompositeRegistry maps tickers to their constituents, for instruments
// whose "daily change" is itself a weighted blend (fund-of-funds). Safe
// for concurrent reads and writes.
type CompositeRegistry struct {
	mu           sync.RWMutex
	compositions map[string][]Component
}

// NewCompositeRegistry creates an empty registry.
func NewCompositeRegistry() *CompositeRegistry {
	return &CompositeRegistry{compositions: make(map[string][]Component)}
}

// Register installs or replaces the composition for a ticker.
func (r *CompositeRegistry) Register(ticker string, components []Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compositions[NormalizeTicker(ticker)] = components
}

// Has reports whether a composition exists for the ticker.
func (r *CompositeRegistry) Has(ticker string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.compositions[NormalizeTicker(ticker)]
	return ok
}

func (r *CompositeRegistry) get(ticker string) ([]Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.compositions[ticker]
	return c, ok
}

// resolveComposite computes a composite's change as the weighted blend of
// its constituents, recursing through nested compositions. The visited set
// is tracked per resolution call; a cycle marks the asset unavailable
// instead of recursing forever.
func (l *Lookup) resolveComposite(ctx context.Context, norm string, visited map[string]bool) Change {
	if visited[norm] {
		log.Warn().Str("ticker", norm).Msg("composition cycle detected")
		return Change{Unavailable: true}
	}
	visited[norm] = true
	defer delete(visited, norm)

	components, ok := l.src.registry.get(norm)
	if !ok {
		// Fell off the registry mid-recursion; treat as a direct fund.
		return l.directChange(ctx, norm, ClassFund, "")
	}

	var total float64
	for _, comp := range components {
		ticker := NormalizeTicker(comp.Ticker)

		var change Change
		switch {
		case IsCashLike(ticker):
			change = Change{}
		case l.src.registry.Has(ticker):
			change = l.resolveComposite(ctx, ticker, visited)
		default:
			class := comp.Class
			if class == "" {
				class = ClassEquity
			}
			change = l.directChange(ctx, ticker, class, "")
		}

		if change.Unavailable {
			return Change{Unavailable: true}
		}
		total += comp.Weight / 100 * change.Percent
	}

	return Change{Percent: total}
}
