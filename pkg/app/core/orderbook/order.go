package orderbook

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the side a taker on s trades against.
func (s Side) Opposite() Side { return -s }

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return 0, validationf("unknown side %q", s)
}

type Kind int8

const (
	Market Kind = iota + 1
	Limit
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return "unknown"
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "market":
		return Market, nil
	case "limit":
		return Limit, nil
	}
	return 0, validationf("unknown order type %q", s)
}

type Status int8

const (
	Pending Status = iota + 1
	Partial
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Partial:
		return "partial"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is the authoritative record of a submitted order. It is mutated in
// place by matching, cancel and update, and is never deleted.
type Order struct {
	ID     string
	Owner  string
	Symbol string
	Kind   Kind
	Side   Side
	Qty    decimal.Decimal // requested
	Price  decimal.Decimal // limit price, zero for market orders
	Filled decimal.Decimal
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
	// Seq is the time-priority key. Lower sequences rank first among equal
	// prices; update assigns a fresh one.
	Seq uint64
}

func (o *Order) Remaining() decimal.Decimal {
	return o.Qty.Sub(o.Filled)
}

// IsLive reports whether the order may rest in (or be matched from) the book.
func (o *Order) IsLive() bool {
	if o.Status != Pending && o.Status != Partial {
		return false
	}
	return o.Remaining().IsPositive()
}

// LimitPrice returns the limit price, or false for market orders.
func (o *Order) LimitPrice() (decimal.Decimal, bool) {
	if o.Kind != Limit {
		return decimal.Zero, false
	}
	return o.Price, true
}

// Marketable reports whether the order crosses the given opposing price.
// Market orders cross everything.
func (o *Order) Marketable(price decimal.Decimal) bool {
	if o.Kind == Market {
		return true
	}
	if o.Side == Buy {
		return o.Price.GreaterThanOrEqual(price)
	}
	return o.Price.LessThanOrEqual(price)
}

// ApplyFill adds qty to the filled quantity and moves the status forward.
// qty is clamped to the remaining quantity so filled never exceeds requested.
func (o *Order) ApplyFill(qty decimal.Decimal) decimal.Decimal {
	if rem := o.Remaining(); qty.GreaterThan(rem) {
		qty = rem
	}
	if !qty.IsPositive() {
		return decimal.Zero
	}
	o.Filled = o.Filled.Add(qty)
	if o.Filled.Equal(o.Qty) {
		o.Status = Filled
	} else {
		o.Status = Partial
	}
	return qty
}

// OrderRequest is an unvalidated submission. Price is required for limit
// orders and rejected for market orders.
type OrderRequest struct {
	ID    string
	Owner string
	Side  Side
	Kind  Kind
	Qty   decimal.Decimal
	Price *decimal.Decimal
}

func (r OrderRequest) Validate() error {
	if r.Owner == "" {
		return validationf("owner is required")
	}
	if IsSentinel(r.Owner) {
		return validationf("owner %q is reserved", r.Owner)
	}
	if r.Side != Buy && r.Side != Sell {
		return validationf("unknown side %d", r.Side)
	}
	if !r.Qty.IsPositive() {
		return validationf("quantity must be positive, got %s", r.Qty)
	}
	switch r.Kind {
	case Limit:
		if r.Price == nil {
			return validationf("limit order requires a price")
		}
		if !r.Price.IsPositive() {
			return validationf("price must be positive, got %s", r.Price)
		}
	case Market:
		if r.Price != nil {
			return validationf("market order must not carry a price")
		}
	default:
		return validationf("unknown order type %d", r.Kind)
	}
	return nil
}

// NewOrder builds a PENDING order from a request. The request must be valid.
func NewOrder(r OrderRequest, symbol string, seq uint64, now time.Time) (*Order, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, errors.Mark(errors.New("order id is required"), ErrValidation)
	}
	o := &Order{
		ID:        r.ID,
		Owner:     r.Owner,
		Symbol:    symbol,
		Kind:      r.Kind,
		Side:      r.Side,
		Qty:       r.Qty,
		Filled:    decimal.Zero,
		Status:    Pending,
		CreatedAt: now,
		UpdatedAt: now,
		Seq:       seq,
	}
	if r.Kind == Limit {
		o.Price = *r.Price
	}
	return o, nil
}
