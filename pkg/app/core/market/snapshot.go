package market

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Level is one (price, quantity) level of an external quote.
type Level struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// Snapshot is the latest externally supplied top-of-book, replaced wholesale
// on every update. Only the first level of each side is tradable; deeper
// levels are informational.
type Snapshot struct {
	Bids       []Level // best (highest) first
	Asks       []Level // best (lowest) first
	ReceivedAt time.Time
}

// NewSnapshot validates and copies the supplied levels. Bids must not ascend
// and asks must not descend; prices and quantities must be positive.
func NewSnapshot(bids, asks []Level, now time.Time) (Snapshot, error) {
	if err := validateSide(bids, true); err != nil {
		return Snapshot{}, errors.Wrap(err, "bids")
	}
	if err := validateSide(asks, false); err != nil {
		return Snapshot{}, errors.Wrap(err, "asks")
	}
	return Snapshot{
		Bids:       append([]Level(nil), bids...),
		Asks:       append([]Level(nil), asks...),
		ReceivedAt: now,
	}, nil
}

func validateSide(levels []Level, desc bool) error {
	for i, lv := range levels {
		if !lv.Price.IsPositive() {
			return orderbook.Validationf("level %d: price must be positive, got %s", i, lv.Price)
		}
		if !lv.Qty.IsPositive() {
			return orderbook.Validationf("level %d: quantity must be positive, got %s", i, lv.Qty)
		}
		if i == 0 {
			continue
		}
		prev := levels[i-1].Price
		if desc && lv.Price.GreaterThan(prev) {
			return orderbook.Validationf("level %d: bids must be sorted descending", i)
		}
		if !desc && lv.Price.LessThan(prev) {
			return orderbook.Validationf("level %d: asks must be sorted ascending", i)
		}
	}
	return nil
}

func (s Snapshot) BestBid() (Level, bool) {
	if len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

func (s Snapshot) BestAsk() (Level, bool) {
	if len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

// Opposing returns the top level a taker on side would trade against.
func (s Snapshot) Opposing(side orderbook.Side) (Level, bool) {
	if side == orderbook.Buy {
		return s.BestAsk()
	}
	return s.BestBid()
}

// Empty reports whether neither side has a quote.
func (s Snapshot) Empty() bool {
	return len(s.Bids) == 0 && len(s.Asks) == 0
}

// Clone returns a deep copy safe to hand to readers.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Bids:       append([]Level(nil), s.Bids...),
		Asks:       append([]Level(nil), s.Asks...),
		ReceivedAt: s.ReceivedAt,
	}
}
