package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reserved identities standing in for external synthetic liquidity. They are
// never real owners and are excluded from per-user bookkeeping.
const (
	SentinelOwner   = "MARKET"
	SentinelOrderID = "MARKET_LIQUIDITY"
)

// IsSentinel reports whether id is the synthetic counterparty owner.
func IsSentinel(id string) bool { return id == SentinelOwner }

type Liquidity int8

const (
	// LiquidityBook fills matched a resting user order.
	LiquidityBook Liquidity = iota + 1
	// LiquiditySynthetic fills traded against the external market snapshot.
	LiquiditySynthetic
)

func (l Liquidity) String() string {
	switch l {
	case LiquidityBook:
		return "book"
	case LiquiditySynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// Fill is an immutable trade record.
type Fill struct {
	ID          string
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	BuyerID     string
	SellerID    string
	Qty         decimal.Decimal
	Price       decimal.Decimal
	Timestamp   time.Time
	TakerSide   Side
	Liquidity   Liquidity
}

// SideFor returns the side owner traded on, or false if owner is not a party.
func (f Fill) SideFor(owner string) (Side, bool) {
	switch owner {
	case f.BuyerID:
		return Buy, true
	case f.SellerID:
		return Sell, true
	}
	return 0, false
}

// OrderIDFor returns the order id of owner's side of the fill.
func (f Fill) OrderIDFor(owner string) string {
	if owner == f.SellerID {
		return f.SellOrderID
	}
	return f.BuyOrderID
}

// Notional is price times quantity.
func (f Fill) Notional() decimal.Decimal {
	return f.Price.Mul(f.Qty)
}
