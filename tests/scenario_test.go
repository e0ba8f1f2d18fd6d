package tests

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/uhyunpark/homebroker/pkg/app/core"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

// Empty book, resting sell crossed by an equal-priced buy.
func TestScenario_ExactCross(t *testing.T) {
	e := newEngine()
	_, sell := limit(t, e, "seller", core.Sell, "1", "100")
	fills, buy := limit(t, e, "buyer", core.Buy, "1", "100")

	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}
	f := fills[0]
	if !f.Qty.Equal(dec("1")) || !f.Price.Equal(dec("100")) {
		t.Errorf("fill = %s@%s, want 1@100", f.Qty, f.Price)
	}
	if f.BuyOrderID != buy.ID || f.SellOrderID != sell.ID {
		t.Errorf("fill orders = %s/%s", f.BuyOrderID, f.SellOrderID)
	}

	sellNow, _ := e.Order(sell.ID)
	if buy.Status != core.Filled || sellNow.Status != core.Filled {
		t.Errorf("statuses = %s/%s, want filled/filled", buy.Status, sellNow.Status)
	}
}

// Taker pays the maker's price and the maker keeps its remainder.
func TestScenario_MakerPrice(t *testing.T) {
	e := newEngine()
	_, sell := limit(t, e, "seller", core.Sell, "2", "100")
	fills, buy := limit(t, e, "buyer", core.Buy, "1", "105")

	if len(fills) != 1 || !fills[0].Price.Equal(dec("100")) || !fills[0].Qty.Equal(dec("1")) {
		t.Fatalf("fills = %+v, want one 1@100", fills)
	}
	sellNow, _ := e.Order(sell.ID)
	if sellNow.Status != core.Partial || !sellNow.Remaining().Equal(dec("1")) {
		t.Errorf("sell = %s remaining %s, want partial 1", sellNow.Status, sellNow.Remaining())
	}
	if buy.Status != core.Filled {
		t.Errorf("buy = %s, want filled", buy.Status)
	}
}

// Market buy into an empty book trades against the external quote.
func TestScenario_MarketAgainstSnapshot(t *testing.T) {
	e := newEngine()
	if _, err := e.IngestMarketData(nil, levels(t, "101", "5")); err != nil {
		t.Fatal(err)
	}
	before := e.OrderBook()

	fills, buy := mkt(t, e, "buyer", core.Buy, "1")
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}
	f := fills[0]
	if !f.Price.Equal(dec("101")) || !f.Qty.Equal(dec("1")) {
		t.Errorf("fill = %s@%s, want 1@101", f.Qty, f.Price)
	}
	if f.SellerID != orderbook.SentinelOwner || f.SellOrderID != orderbook.SentinelOrderID {
		t.Errorf("counterparty = %s/%s, want sentinel", f.SellerID, f.SellOrderID)
	}
	if buy.Status != core.Filled {
		t.Errorf("buy = %s, want filled", buy.Status)
	}

	after := e.OrderBook()
	if len(after.Bids) != len(before.Bids) || len(after.Asks) != len(before.Asks) {
		t.Error("book changed")
	}
}

// A new snapshot fills a resting bid that now crosses.
func TestScenario_ReconcileOnSnapshot(t *testing.T) {
	e := newEngine()
	_, bid := limit(t, e, "buyer", core.Buy, "1", "99")

	fills, err := e.IngestMarketData(nil, levels(t, "98", "10"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fills) != 1 || !fills[0].Price.Equal(dec("98")) || !fills[0].Qty.Equal(dec("1")) {
		t.Fatalf("fills = %+v, want one 1@98", fills)
	}
	if fills[0].SellerID != orderbook.SentinelOwner {
		t.Errorf("seller = %s, want sentinel", fills[0].SellerID)
	}

	got, _ := e.Order(bid.ID)
	if got.Status != core.Filled {
		t.Errorf("bid = %s, want filled", got.Status)
	}
	for _, lvl := range e.OrderBook().Bids {
		if lvl.Price.Equal(dec("99")) {
			t.Error("filled bid still shown at 99")
		}
	}
}

// Cancelling a filled order is rejected and writes nothing.
func TestScenario_CancelFilled(t *testing.T) {
	e := newEngine()
	_, sell := limit(t, e, "seller", core.Sell, "1", "100")
	limit(t, e, "buyer", core.Buy, "1", "100")
	before := len(e.Fills())

	err := e.Cancel(sell.ID, "seller")
	if !errors.Is(err, orderbook.ErrInvalidState) {
		t.Fatalf("err = %v, want invalid state", err)
	}
	if len(e.Fills()) != before {
		t.Error("ledger changed")
	}
	got, _ := e.Order(sell.ID)
	if got.Status != core.Filled {
		t.Errorf("status = %s, want filled", got.Status)
	}
}
