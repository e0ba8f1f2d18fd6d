package store

import (
	"sync"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Ledger is the append-only fill history, globally and per owner.
type Ledger struct {
	mu      sync.RWMutex
	fills   []orderbook.Fill
	byOwner map[string][]int // owner -> indexes into fills
}

func NewLedger() *Ledger {
	return &Ledger{byOwner: make(map[string][]int)}
}

// Append records f. The synthetic counterparty is not indexed as an owner.
func (l *Ledger) Append(f orderbook.Fill) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := len(l.fills)
	l.fills = append(l.fills, f)
	if !orderbook.IsSentinel(f.BuyerID) {
		l.byOwner[f.BuyerID] = append(l.byOwner[f.BuyerID], idx)
	}
	// self-trades are indexed once
	if !orderbook.IsSentinel(f.SellerID) && f.SellerID != f.BuyerID {
		l.byOwner[f.SellerID] = append(l.byOwner[f.SellerID], idx)
	}
}

// ByOwner returns every fill where owner was buyer or seller, oldest first.
func (l *Ledger) ByOwner(owner string) []orderbook.Fill {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idxs := l.byOwner[owner]
	out := make([]orderbook.Fill, len(idxs))
	for i, idx := range idxs {
		out[i] = l.fills[idx]
	}
	return out
}

// All returns a copy of the full history.
func (l *Ledger) All() []orderbook.Fill {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]orderbook.Fill(nil), l.fills...)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fills)
}
