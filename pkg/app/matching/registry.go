package matching

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Registry maps instrument symbols to their engines. Each engine keeps its
// own lock domain; the registry only guards the map.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine // symbol -> engine
}

func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
	}
}

// Register adds an engine. Returns error if the symbol is already taken.
func (r *Registry) Register(e *Engine) error {
	if e == nil {
		return errors.New("cannot register nil engine")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[e.Symbol()]; exists {
		return errors.Mark(errors.Newf("engine for %s already registered", e.Symbol()), orderbook.ErrDuplicateID)
	}

	r.engines[e.Symbol()] = e
	return nil
}

// Get retrieves the engine for symbol.
func (r *Registry) Get(symbol string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.engines[symbol]
	if !exists {
		return nil, errors.Mark(errors.Newf("market %s not found", symbol), orderbook.ErrNotFound)
	}
	return e, nil
}

// Symbols returns the registered symbols in lexical order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.engines))
	for sym := range r.engines {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
