// Package outbox buffers engine results for delivery to the journal and the
// fill stream, so request handlers never block on downstream I/O.
package outbox

import (
	"sync"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Batch is what one drain hands to the sinks.
type Batch struct {
	Orders []orderbook.Order
	Fills  []orderbook.Fill
}

func (b Batch) Empty() bool { return len(b.Orders) == 0 && len(b.Fills) == 0 }

// Outbox keeps two FIFO queues: order states and fills. Within each queue
// items leave in the order they were pushed.
type Outbox struct {
	mu     sync.Mutex
	orders []orderbook.Order
	fills  []orderbook.Fill
	notify chan struct{}
}

func New() *Outbox {
	return &Outbox{notify: make(chan struct{}, 1)}
}

// Push enqueues the result of one engine call.
func (o *Outbox) Push(fills []orderbook.Fill, orders ...orderbook.Order) {
	if len(fills) == 0 && len(orders) == 0 {
		return
	}
	o.mu.Lock()
	o.orders = append(o.orders, orders...)
	o.fills = append(o.fills, fills...)
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// Ready fires after a Push. Spurious wakeups are possible.
func (o *Outbox) Ready() <-chan struct{} { return o.notify }

// Drain removes up to max items from each queue (all when max <= 0).
func (o *Outbox) Drain(max int) Batch {
	o.mu.Lock()
	defer o.mu.Unlock()

	var b Batch
	b.Orders, o.orders = take(o.orders, max)
	b.Fills, o.fills = take(o.fills, max)
	return b
}

// Len returns the number of queued items.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.orders) + len(o.fills)
}

func take[T any](q []T, max int) (head, rest []T) {
	n := len(q)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil, q
	}
	head = make([]T, n)
	copy(head, q[:n])
	rest = q[n:]
	if len(rest) == 0 {
		rest = nil
	}
	return head, rest
}
