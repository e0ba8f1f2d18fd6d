package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// FillRecord is the journal encoding of a fill.
type FillRecord struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	BuyOrderID  string          `json:"buyOrderId"`
	SellOrderID string          `json:"sellOrderId"`
	BuyerID     string          `json:"buyerId"`
	SellerID    string          `json:"sellerId"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	TakerSide   string          `json:"takerSide"`
	Liquidity   string          `json:"liquidity"`
	Timestamp   time.Time       `json:"timestamp"`
}

func newFillRecord(f orderbook.Fill) FillRecord {
	return FillRecord{
		ID:          f.ID,
		Symbol:      f.Symbol,
		BuyOrderID:  f.BuyOrderID,
		SellOrderID: f.SellOrderID,
		BuyerID:     f.BuyerID,
		SellerID:    f.SellerID,
		Qty:         f.Qty,
		Price:       f.Price,
		TakerSide:   f.TakerSide.String(),
		Liquidity:   f.Liquidity.String(),
		Timestamp:   f.Timestamp,
	}
}

// OrderRecord is the journal encoding of an order's latest state.
type OrderRecord struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Symbol    string          `json:"symbol"`
	Kind      string          `json:"kind"`
	Side      string          `json:"side"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Filled    decimal.Decimal `json:"filled"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newOrderRecord(o orderbook.Order) OrderRecord {
	return OrderRecord{
		ID:        o.ID,
		Owner:     o.Owner,
		Symbol:    o.Symbol,
		Kind:      o.Kind.String(),
		Side:      o.Side.String(),
		Qty:       o.Qty,
		Price:     o.Price,
		Filled:    o.Filled,
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
