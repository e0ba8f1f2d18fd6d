package store

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Orders is the authoritative order table plus a per-owner index in creation
// order. Records are never deleted; the engine mutates them in place.
type Orders struct {
	mu      sync.RWMutex
	byID    map[string]*orderbook.Order
	byOwner map[string][]string // owner -> order IDs, creation order
}

func NewOrders() *Orders {
	return &Orders{
		byID:    make(map[string]*orderbook.Order),
		byOwner: make(map[string][]string),
	}
}

// Insert adds a new order. Fails with ErrDuplicateID if the id is taken.
func (s *Orders) Insert(o *orderbook.Order) error {
	if o == nil {
		return errors.Mark(errors.New("cannot insert nil order"), orderbook.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[o.ID]; exists {
		return errors.Mark(errors.Newf("order %s already exists", o.ID), orderbook.ErrDuplicateID)
	}
	s.byID[o.ID] = o
	s.byOwner[o.Owner] = append(s.byOwner[o.Owner], o.ID)
	return nil
}

// Get returns the live record for id. Fails with ErrNotFound.
func (s *Orders) Get(id string) (*orderbook.Order, error) {
	o, ok := s.Lookup(id)
	if !ok {
		return nil, errors.Mark(errors.Newf("order %s not found", id), orderbook.ErrNotFound)
	}
	return o, nil
}

// Lookup implements orderbook.OrderSource.
func (s *Orders) Lookup(id string) (*orderbook.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	return o, ok
}

// ListByOwner returns copies of every order owner ever created, oldest first.
func (s *Orders) ListByOwner(owner string) []orderbook.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOwner[owner]
	out := make([]orderbook.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.byID[id]; ok {
			out = append(out, *o)
		}
	}
	return out
}

func (s *Orders) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
