// Package core re-exports the engine's entity types and offers request
// builders that take decimal strings, for callers that do not want to import
// the subpackages directly.
package core

import (
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/market"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// From orderbook package
type (
	Side         = orderbook.Side
	Kind         = orderbook.Kind
	Status       = orderbook.Status
	Order        = orderbook.Order
	OrderRequest = orderbook.OrderRequest
	Fill         = orderbook.Fill
	PriceLevel   = orderbook.PriceLevel
)

const (
	Buy  = orderbook.Buy
	Sell = orderbook.Sell

	Market = orderbook.Market
	Limit  = orderbook.Limit

	Pending   = orderbook.Pending
	Partial   = orderbook.Partial
	Filled    = orderbook.Filled
	Cancelled = orderbook.Cancelled
)

// From market package
type Level = market.Level

// LimitRequest builds a limit order request. qty and price are decimal
// strings; a malformed one is a validation error.
func LimitRequest(owner string, side Side, qty, price string) (OrderRequest, error) {
	q, err := parseDecimal("quantity", qty)
	if err != nil {
		return OrderRequest{}, err
	}
	p, err := parseDecimal("price", price)
	if err != nil {
		return OrderRequest{}, err
	}
	return OrderRequest{Owner: owner, Side: side, Kind: Limit, Qty: q, Price: &p}, nil
}

// MarketRequest builds a market order request.
func MarketRequest(owner string, side Side, qty string) (OrderRequest, error) {
	q, err := parseDecimal("quantity", qty)
	if err != nil {
		return OrderRequest{}, err
	}
	return OrderRequest{Owner: owner, Side: side, Kind: Market, Qty: q}, nil
}

// Levels builds snapshot levels from alternating price, quantity strings.
func Levels(pairs ...string) ([]Level, error) {
	if len(pairs)%2 != 0 {
		return nil, orderbook.Validationf("levels need price/quantity pairs, got %d values", len(pairs))
	}
	out := make([]Level, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		p, err := parseDecimal("price", pairs[i])
		if err != nil {
			return nil, err
		}
		q, err := parseDecimal("quantity", pairs[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, Level{Price: p, Qty: q})
	}
	return out, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, orderbook.Validationf("invalid %s %q", field, s)
	}
	return d, nil
}
