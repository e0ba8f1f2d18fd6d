package matching

import (
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Cancel marks an open order CANCELLED. The record stays queryable; its book
// entry is dropped lazily.
func (e *Engine) Cancel(orderID, requester string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.authorize(orderID, requester)
	if err != nil {
		return err
	}
	if o.Status == orderbook.Filled || o.Status == orderbook.Cancelled {
		return errors.Mark(errors.Newf("order %s is already %s", orderID, o.Status), orderbook.ErrInvalidState)
	}

	o.Status = orderbook.Cancelled
	o.UpdatedAt = e.clock.Now()
	e.book.Remove(o.ID)

	e.log.Infow("order_cancelled", "order_id", o.ID, "owner", o.Owner)
	return nil
}

// Update is cancel-and-reinsert for PENDING limit orders. A new quantity
// resets the filled quantity to zero. The order gets a fresh time priority
// and rests again without being matched, even if the new price crosses.
func (e *Engine) Update(orderID, requester string, newPrice, newQty *decimal.Decimal) (orderbook.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.authorize(orderID, requester)
	if err != nil {
		return orderbook.Order{}, err
	}
	if o.Status != orderbook.Pending {
		return orderbook.Order{}, errors.Mark(errors.Newf("order %s is %s, only pending orders can be updated", orderID, o.Status), orderbook.ErrInvalidState)
	}
	if o.Kind != orderbook.Limit {
		return orderbook.Order{}, errors.Mark(errors.Newf("order %s is a %s order and never rests", orderID, o.Kind), orderbook.ErrInvalidState)
	}
	if newPrice != nil && !newPrice.IsPositive() {
		return orderbook.Order{}, orderbook.Validationf("price must be positive, got %s", newPrice)
	}
	if newQty != nil && !newQty.IsPositive() {
		return orderbook.Order{}, orderbook.Validationf("quantity must be positive, got %s", newQty)
	}

	e.book.Remove(o.ID)
	if newPrice != nil {
		o.Price = *newPrice
	}
	if newQty != nil {
		o.Qty = *newQty
		o.Filled = decimal.Zero
	}
	o.Seq = e.nextSeq()
	o.UpdatedAt = e.clock.Now()
	e.book.Push(o)

	e.log.Infow("order_updated",
		"order_id", o.ID,
		"price", o.Price.String(),
		"qty", o.Qty.String())

	return *o, nil
}

func (e *Engine) authorize(orderID, requester string) (*orderbook.Order, error) {
	o, err := e.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if o.Owner != requester {
		return nil, errors.Mark(errors.Newf("order %s does not belong to %s", orderID, requester), orderbook.ErrUnauthorized)
	}
	return o, nil
}
