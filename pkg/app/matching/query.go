package matching

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/market"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// BookSnapshot is the aggregated view of the resident book.
type BookSnapshot struct {
	Symbol    string
	Bids      []orderbook.PriceLevel // best (highest) first
	Asks      []orderbook.PriceLevel // best (lowest) first
	LastPrice decimal.NullDecimal
	Timestamp time.Time
}

// OrderBook returns the top aggregated levels of each side. Two calls with no
// write in between return identical levels.
func (e *Engine) OrderBook() BookSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return BookSnapshot{
		Symbol:    e.symbol,
		Bids:      e.book.Levels(orderbook.Buy, e.depth),
		Asks:      e.book.Levels(orderbook.Sell, e.depth),
		LastPrice: e.lastPrice,
		Timestamp: e.clock.Now(),
	}
}

// UserOrders returns owner's full order history in creation order.
func (e *Engine) UserOrders(owner string) []orderbook.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orders.ListByOwner(owner)
}

// UserFills returns every fill where owner was buyer or seller.
func (e *Engine) UserFills(owner string) []orderbook.Fill {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.ByOwner(owner)
}

// Fills returns the global fill history.
func (e *Engine) Fills() []orderbook.Fill {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.All()
}

func (e *Engine) Order(id string) (orderbook.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	o, err := e.orders.Get(id)
	if err != nil {
		return orderbook.Order{}, err
	}
	return *o, nil
}

func (e *Engine) LastPrice() decimal.NullDecimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastPrice
}

func (e *Engine) BestBid() (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Best(orderbook.Buy)
}

func (e *Engine) BestAsk() (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Best(orderbook.Sell)
}

// MarketSnapshot returns a copy of the current liquidity snapshot.
func (e *Engine) MarketSnapshot() market.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot.Clone()
}
