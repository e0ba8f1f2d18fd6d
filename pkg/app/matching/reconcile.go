package matching

import (
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// reconcile re-scans the resting orders after a snapshot replacement and
// fills every order that now crosses the snapshot's top opposing price.
// Fills are whole-order, at the snapshot price, against the sentinel.
func (e *Engine) reconcile() []orderbook.Fill {
	var fills []orderbook.Fill
	fills = append(fills, e.reconcileSide(orderbook.Buy)...)
	fills = append(fills, e.reconcileSide(orderbook.Sell)...)
	return fills
}

func (e *Engine) reconcileSide(side orderbook.Side) []orderbook.Fill {
	top, ok := e.snapshot.Opposing(side)
	if !ok {
		return nil
	}

	var working []*orderbook.Order
	for {
		o, ok := e.book.PopBest(side)
		if !ok {
			break
		}
		working = append(working, o)
	}

	var fills []orderbook.Fill
	for _, o := range working {
		// price is read from the store record, not the queue key
		cur, ok := e.orders.Lookup(o.ID)
		if !ok || !cur.IsLive() {
			continue
		}
		if !cur.Marketable(top.Price) {
			e.book.Push(cur)
			continue
		}
		qty := cur.Remaining()
		f := e.record(cur, orderbook.SentinelOrderID, orderbook.SentinelOwner, qty, top.Price, side.Opposite(), orderbook.LiquiditySynthetic)
		fills = append(fills, f)
		cur.ApplyFill(qty)
		cur.UpdatedAt = f.Timestamp
	}
	return fills
}
