package api

import (
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/app/matching"
	"github.com/uhyunpark/homebroker/pkg/storage"
)

// API request and response types for REST endpoints and WebSocket messages.
// Prices and quantities travel as decimal strings.

// ==============================
// REST Request Types
// ==============================

// SubmitOrderRequest is the payload for POST /api/orders
type SubmitOrderRequest struct {
	ID        string           `json:"id,omitempty"` // optional client-chosen id
	OrderType string           `json:"order_type"`   // "market" or "limit"
	Side      string           `json:"side"`         // "buy" or "sell"
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"` // required for limit orders
}

// UpdateOrderRequest is the payload for PUT /api/orders/{id}. Omitted fields
// keep their current value.
type UpdateOrderRequest struct {
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
}

// ==============================
// REST Response Types
// ==============================

type SubmitOrderResponse struct {
	OrderID string      `json:"order_id"`
	Status  string      `json:"status"`
	Fills   []TradeInfo `json:"fills"`
}

type CancelOrderResponse struct {
	Status  string `json:"status"` // "cancelled"
	OrderID string `json:"order_id"`
}

// OrderInfo represents an order (open or historical)
type OrderInfo struct {
	ID        string           `json:"id"`
	Symbol    string           `json:"symbol"`
	OrderType string           `json:"order_type"`
	Side      string           `json:"side"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Filled    decimal.Decimal  `json:"filled_quantity"`
	Remaining decimal.Decimal  `json:"remaining_quantity"`
	Price     *decimal.Decimal `json:"price"` // null for market orders
	Status    string           `json:"status"`
	Timestamp int64            `json:"timestamp"` // Unix milliseconds, creation time
	UpdatedAt int64            `json:"updated_at"`
}

type OrdersResponse struct {
	Orders []OrderInfo `json:"orders"`
}

// TradeInfo is a fill seen from one user's side.
type TradeInfo struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"` // "buy" or "sell"
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Liquidity string          `json:"liquidity"` // "book" or "synthetic"
	Timestamp int64           `json:"timestamp"`
}

type TradesResponse struct {
	Trades []TradeInfo `json:"trades"`
}

// MarketTrade is a fill on the public tape, without participant ids.
type MarketTrade struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	TakerSide string          `json:"taker_side"`
	Liquidity string          `json:"liquidity"`
	Timestamp int64           `json:"timestamp"`
}

// PriceLevel represents an aggregated [price, quantity] row
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderbookSnapshot represents current order book state
type OrderbookSnapshot struct {
	Symbol    string              `json:"symbol"`
	Bids      []PriceLevel        `json:"bids"` // Sorted high to low
	Asks      []PriceLevel        `json:"asks"` // Sorted low to high
	LastPrice decimal.NullDecimal `json:"last_price"`
	Timestamp int64               `json:"timestamp"` // Unix milliseconds
}

// MarketInfo summarizes one registered instrument.
type MarketInfo struct {
	Symbol    string              `json:"symbol"`
	BestBid   decimal.NullDecimal `json:"best_bid"`
	BestAsk   decimal.NullDecimal `json:"best_ask"`
	LastPrice decimal.NullDecimal `json:"last_price"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSMessage is the base structure for all WebSocket messages
type WSMessage struct {
	Type string      `json:"type"` // "user_info", "order_book", "order_book_update", "fill", "orders_update", "market_data"
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["orderbook:BTCUSD", "market_data:BTCUSD"]
}

type UserInfo struct {
	UserID string `json:"user_id"`
}

// FillUpdate is pushed to each real participant of a fill.
type FillUpdate struct {
	TradeInfo
}

// MarketDataUpdate carries one external liquidity snapshot.
type MarketDataUpdate struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Bids      []PriceLevel    `json:"bids"`
	Asks      []PriceLevel    `json:"asks"`
	Timestamp int64           `json:"timestamp"`
}

// ==============================
// Conversions
// ==============================

func toOrderInfo(o orderbook.Order) OrderInfo {
	info := OrderInfo{
		ID:        o.ID,
		Symbol:    o.Symbol,
		OrderType: o.Kind.String(),
		Side:      o.Side.String(),
		Quantity:  o.Qty,
		Filled:    o.Filled,
		Remaining: o.Remaining(),
		Status:    o.Status.String(),
		Timestamp: o.CreatedAt.UnixMilli(),
		UpdatedAt: o.UpdatedAt.UnixMilli(),
	}
	if px, ok := o.LimitPrice(); ok {
		info.Price = &px
	}
	return info
}

func toOrderInfos(orders []orderbook.Order) []OrderInfo {
	out := make([]OrderInfo, len(orders))
	for i, o := range orders {
		out[i] = toOrderInfo(o)
	}
	return out
}

// toTradeInfo renders f from owner's side. ok is false if owner is not a party.
func toTradeInfo(f orderbook.Fill, owner string) (TradeInfo, bool) {
	side, ok := f.SideFor(owner)
	if !ok {
		return TradeInfo{}, false
	}
	return TradeInfo{
		ID:        f.ID,
		OrderID:   f.OrderIDFor(owner),
		Symbol:    f.Symbol,
		Side:      side.String(),
		Quantity:  f.Qty,
		Price:     f.Price,
		Liquidity: f.Liquidity.String(),
		Timestamp: f.Timestamp.UnixMilli(),
	}, true
}

func toTradeInfos(fills []orderbook.Fill, owner string) []TradeInfo {
	out := make([]TradeInfo, 0, len(fills))
	for _, f := range fills {
		if ti, ok := toTradeInfo(f, owner); ok {
			out = append(out, ti)
		}
	}
	return out
}

func toMarketTrade(f orderbook.Fill) MarketTrade {
	return MarketTrade{
		ID:        f.ID,
		Symbol:    f.Symbol,
		Quantity:  f.Qty,
		Price:     f.Price,
		TakerSide: f.TakerSide.String(),
		Liquidity: f.Liquidity.String(),
		Timestamp: f.Timestamp.UnixMilli(),
	}
}

func fromFillRecord(r storage.FillRecord) MarketTrade {
	return MarketTrade{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Quantity:  r.Qty,
		Price:     r.Price,
		TakerSide: r.TakerSide,
		Liquidity: r.Liquidity,
		Timestamp: r.Timestamp.UnixMilli(),
	}
}

func toPriceLevels(levels []orderbook.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price, Quantity: l.Qty}
	}
	return out
}

func toOrderbookSnapshot(b matching.BookSnapshot) OrderbookSnapshot {
	return OrderbookSnapshot{
		Symbol:    b.Symbol,
		Bids:      toPriceLevels(b.Bids),
		Asks:      toPriceLevels(b.Asks),
		LastPrice: b.LastPrice,
		Timestamp: b.Timestamp.UnixMilli(),
	}
}

func nullDecimal(d decimal.Decimal, ok bool) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}
