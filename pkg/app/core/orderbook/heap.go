package orderbook

import "github.com/shopspring/decimal"

// entry is one resting reference in a priority queue. price and seq are the
// ranking keys captured at push time.
type entry struct {
	id    string
	price decimal.Decimal
	seq   uint64
}

// BidHeap implements heap.Interface for bids (highest price, then lowest seq, on top)
// Use container/heap package to manipulate this heap (Init, Push, Pop, Remove)
type BidHeap []entry

func (h BidHeap) Len() int { return len(h) }
func (h BidHeap) Less(i, j int) bool {
	if c := h[i].price.Cmp(h[j].price); c != 0 {
		return c > 0
	}
	return h[i].seq < h[j].seq
}
func (h BidHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *BidHeap) Push(x interface{}) {
	*h = append(*h, x.(entry))
}

func (h *BidHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// AskHeap implements heap.Interface for asks (lowest price, then lowest seq, on top)
type AskHeap []entry

func (h AskHeap) Len() int { return len(h) }
func (h AskHeap) Less(i, j int) bool {
	if c := h[i].price.Cmp(h[j].price); c != 0 {
		return c < 0
	}
	return h[i].seq < h[j].seq
}
func (h AskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *AskHeap) Push(x interface{}) {
	*h = append(*h, x.(entry))
}

func (h *AskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
