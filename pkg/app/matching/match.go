package matching

import (
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// process runs an incoming order against the opposing side of the book, then
// against the top of the liquidity snapshot, and rests any limit remainder.
// Execution against the book is always at the maker's price.
func (e *Engine) process(o *orderbook.Order) []orderbook.Fill {
	var fills []orderbook.Fill
	opp := o.Side.Opposite()

	for o.Remaining().IsPositive() {
		maker, ok := e.book.PeekBest(opp)
		if !ok {
			break
		}
		// the queue is price ordered: if the best maker does not cross,
		// nothing behind it does either
		if !o.Marketable(maker.Price) {
			break
		}

		qty := decimal.Min(o.Remaining(), maker.Remaining())
		if qty.Equal(maker.Remaining()) {
			e.book.PopBest(opp)
		}
		f := e.record(o, maker.ID, maker.Owner, qty, maker.Price, o.Side, orderbook.LiquidityBook)
		fills = append(fills, f)
		o.ApplyFill(qty)
		maker.ApplyFill(qty)
		o.UpdatedAt, maker.UpdatedAt = f.Timestamp, f.Timestamp
	}

	if o.Remaining().IsPositive() {
		// synthetic venue: unlimited depth at its single quoted price
		if top, ok := e.snapshot.Opposing(o.Side); ok && o.Marketable(top.Price) {
			qty := o.Remaining()
			f := e.record(o, orderbook.SentinelOrderID, orderbook.SentinelOwner, qty, top.Price, o.Side, orderbook.LiquiditySynthetic)
			fills = append(fills, f)
			o.ApplyFill(qty)
			o.UpdatedAt = f.Timestamp
		}
	}

	// market remainders are dropped, never rested
	if o.Kind == orderbook.Limit && o.IsLive() {
		e.book.Push(o)
	}

	return fills
}

// record builds the fill between o and its counterparty, appends it to the
// ledger and moves the last traded price. Quantities on the orders are not
// touched here.
func (e *Engine) record(o *orderbook.Order, cpOrderID, cpOwner string, qty, price decimal.Decimal, taker orderbook.Side, liq orderbook.Liquidity) orderbook.Fill {
	f := orderbook.Fill{
		ID:        e.newID(),
		Symbol:    e.symbol,
		Qty:       qty,
		Price:     price,
		Timestamp: e.clock.Now(),
		TakerSide: taker,
		Liquidity: liq,
	}
	if o.Side == orderbook.Buy {
		f.BuyOrderID, f.BuyerID = o.ID, o.Owner
		f.SellOrderID, f.SellerID = cpOrderID, cpOwner
	} else {
		f.BuyOrderID, f.BuyerID = cpOrderID, cpOwner
		f.SellOrderID, f.SellerID = o.ID, o.Owner
	}

	e.ledger.Append(f)
	e.lastPrice = decimal.NewNullDecimal(price)

	e.log.Debugw("fill_executed",
		"fill_id", f.ID,
		"buy_order", f.BuyOrderID,
		"sell_order", f.SellOrderID,
		"qty", qty.String(),
		"price", price.String(),
		"liquidity", liq.String())

	return f
}
