package orderbook

import (
	"container/heap"
	"sort"

	"github.com/shopspring/decimal"
)

// OrderSource resolves an order id to its authoritative record.
type OrderSource interface {
	Lookup(id string) (*Order, bool)
}

type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal // total remaining qty at this price level
}

type restingRef struct {
	side Side
	seq  uint64
}

// Book holds the two price-time priority queues of resting limit orders.
//
// Deletion is lazy: Remove only drops the resting registration, and any entry
// whose registration, sequence or backing order is no longer live is thrown
// away the next time it reaches the top of its heap. Callers never observe a
// dead entry from PeekBest or PopBest.
//
// Book is not safe for concurrent use; the engine serializes access.
type Book struct {
	orders OrderSource

	bids *BidHeap
	asks *AskHeap

	// order ID -> side and seq of its single live entry
	resting map[string]restingRef
}

func NewBook(orders OrderSource) *Book {
	bids := &BidHeap{}
	asks := &AskHeap{}
	heap.Init(bids)
	heap.Init(asks)

	return &Book{
		orders:  orders,
		bids:    bids,
		asks:    asks,
		resting: make(map[string]restingRef),
	}
}

// Push rests a live limit order at its current price and sequence. A previous
// entry for the same order becomes dead.
func (b *Book) Push(o *Order) bool {
	if o == nil || o.Kind != Limit || !o.IsLive() {
		return false
	}
	e := entry{id: o.ID, price: o.Price, seq: o.Seq}
	if o.Side == Buy {
		heap.Push(b.bids, e)
	} else {
		heap.Push(b.asks, e)
	}
	b.resting[o.ID] = restingRef{side: o.Side, seq: o.Seq}
	return true
}

// PeekBest returns the highest-priority live order on side without removing it.
func (b *Book) PeekBest(side Side) (*Order, bool) {
	for {
		e, ok := b.top(side)
		if !ok {
			return nil, false
		}
		if o, live := b.live(side, e); live {
			return o, true
		}
		b.discardTop(side, e)
	}
}

// PopBest removes and returns the highest-priority live order on side.
func (b *Book) PopBest(side Side) (*Order, bool) {
	o, ok := b.PeekBest(side)
	if !ok {
		return nil, false
	}
	b.pop(side)
	delete(b.resting, o.ID)
	return o, true
}

// Remove drops the resting order with the given id. The heap entry stays in
// place and is discarded when it surfaces.
func (b *Book) Remove(id string) bool {
	if _, ok := b.resting[id]; !ok {
		return false
	}
	delete(b.resting, id)
	return true
}

// Contains reports whether id currently rests in the book.
func (b *Book) Contains(id string) bool {
	ref, ok := b.resting[id]
	if !ok {
		return false
	}
	o, ok := b.orders.Lookup(id)
	return ok && o.IsLive() && o.Seq == ref.seq && o.Side == ref.side
}

// Len returns the number of live resting orders on side.
func (b *Book) Len(side Side) int {
	n := 0
	for id, ref := range b.resting {
		if ref.side == side && b.Contains(id) {
			n++
		}
	}
	return n
}

// Levels aggregates the remaining quantity of live resting orders per exact
// price, best price first, keeping at most depth levels (all when depth <= 0).
// It does not modify the heaps, so it is safe under a read lock.
func (b *Book) Levels(side Side, depth int) []PriceLevel {
	var entries []entry
	if side == Buy {
		entries = *b.bids
	} else {
		entries = *b.asks
	}

	type liveEntry struct {
		price decimal.Decimal
		qty   decimal.Decimal
	}
	live := make([]liveEntry, 0, len(entries))
	for _, e := range entries {
		o, ok := b.live(side, e)
		if !ok {
			continue
		}
		live = append(live, liveEntry{price: e.price, qty: o.Remaining()})
	}

	sort.Slice(live, func(i, j int) bool {
		if side == Buy {
			return live[i].price.GreaterThan(live[j].price)
		}
		return live[i].price.LessThan(live[j].price)
	})

	var levels []PriceLevel
	for _, le := range live {
		if n := len(levels); n > 0 && levels[n-1].Price.Equal(le.price) {
			levels[n-1].Qty = levels[n-1].Qty.Add(le.qty)
			continue
		}
		if depth > 0 && len(levels) == depth {
			break
		}
		levels = append(levels, PriceLevel{Price: le.price, Qty: le.qty})
	}
	return levels
}

// Best returns the best live resting price on side without discarding
// anything, so it can be used under a read lock.
func (b *Book) Best(side Side) (decimal.Decimal, bool) {
	levels := b.Levels(side, 1)
	if len(levels) == 0 {
		return decimal.Zero, false
	}
	return levels[0].Price, true
}

// ---- internal ----

func (b *Book) live(side Side, e entry) (*Order, bool) {
	ref, ok := b.resting[e.id]
	if !ok || ref.seq != e.seq || ref.side != side {
		return nil, false
	}
	o, ok := b.orders.Lookup(e.id)
	if !ok || o.Seq != e.seq || !o.IsLive() {
		return nil, false
	}
	return o, true
}

func (b *Book) top(side Side) (entry, bool) {
	if side == Buy {
		if b.bids.Len() == 0 {
			return entry{}, false
		}
		return (*b.bids)[0], true
	}
	if b.asks.Len() == 0 {
		return entry{}, false
	}
	return (*b.asks)[0], true
}

func (b *Book) pop(side Side) {
	if side == Buy {
		heap.Pop(b.bids)
	} else {
		heap.Pop(b.asks)
	}
}

func (b *Book) discardTop(side Side, e entry) {
	b.pop(side)
	if ref, ok := b.resting[e.id]; ok && ref.seq == e.seq && ref.side == side {
		delete(b.resting, e.id)
	}
}
