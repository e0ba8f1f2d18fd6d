package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/app/core/outbox"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testFill(id string, ts time.Time, price int64) orderbook.Fill {
	return orderbook.Fill{
		ID:          id,
		Symbol:      "BTCUSD",
		BuyOrderID:  "b-" + id,
		SellOrderID: "s-" + id,
		BuyerID:     "alice",
		SellerID:    "bob",
		Qty:         decimal.NewFromInt(1),
		Price:       decimal.NewFromInt(price),
		Timestamp:   ts,
		TakerSide:   orderbook.Buy,
		Liquidity:   orderbook.LiquidityBook,
	}
}

func TestJournal_RecentFillsNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	fills := []orderbook.Fill{
		testFill("f1", base, 100),
		testFill("f2", base.Add(time.Second), 101),
		testFill("f3", base.Add(2*time.Second), 102),
	}
	if err := j.RecordFills(fills); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := j.RecentFills("BTCUSD", 2)
	if err != nil {
		t.Fatalf("recent fills: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(got))
	}
	if got[0].ID != "f3" || got[1].ID != "f2" {
		t.Errorf("order = %s,%s; want f3,f2", got[0].ID, got[1].ID)
	}
	if !got[0].Price.Equal(decimal.NewFromInt(102)) {
		t.Errorf("price = %s, want 102", got[0].Price)
	}
	if got[0].Liquidity != "book" || got[0].TakerSide != "buy" {
		t.Errorf("liquidity/taker = %s/%s", got[0].Liquidity, got[0].TakerSide)
	}
}

func TestJournal_RecentFillsIsolatedBySymbol(t *testing.T) {
	j := openTestJournal(t)
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	other := testFill("e1", ts, 50)
	other.Symbol = "ETHUSD"
	if err := j.RecordFills([]orderbook.Fill{testFill("f1", ts, 100), other}); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := j.RecentFills("BTCUSD", 10)
	if err != nil {
		t.Fatalf("recent fills: %v", err)
	}
	if len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("expected only f1, got %+v", got)
	}
}

func TestJournal_OrdersOverwriteLatestState(t *testing.T) {
	j := openTestJournal(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	o := orderbook.Order{
		ID:        "o1",
		Owner:     "alice",
		Symbol:    "BTCUSD",
		Kind:      orderbook.Limit,
		Side:      orderbook.Buy,
		Qty:       decimal.NewFromInt(2),
		Price:     decimal.NewFromInt(100),
		Filled:    decimal.Zero,
		Status:    orderbook.Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := j.RecordOrders(o); err != nil {
		t.Fatalf("record: %v", err)
	}

	o.Filled = decimal.NewFromInt(2)
	o.Status = orderbook.Filled
	if err := j.RecordOrders(o); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := j.OwnerOrders("alice")
	if err != nil {
		t.Fatalf("owner orders: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 order record, got %d", len(got))
	}
	if got[0].Status != "filled" || !got[0].Filled.Equal(decimal.NewFromInt(2)) {
		t.Errorf("record = %+v, want filled 2", got[0])
	}

	if none, _ := j.OwnerOrders("bob"); len(none) != 0 {
		t.Errorf("bob should have no orders, got %d", len(none))
	}
}

func TestJournal_OwnersWithSeparatorsStayIsolated(t *testing.T) {
	j := openTestJournal(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id, owner string) orderbook.Order {
		return orderbook.Order{
			ID: id, Owner: owner, Symbol: "BTCUSD",
			Kind: orderbook.Limit, Side: orderbook.Buy,
			Qty: decimal.NewFromInt(1), Price: decimal.NewFromInt(100),
			Status: orderbook.Pending, CreatedAt: now, UpdatedAt: now,
		}
	}
	if err := j.RecordOrders(mk("o1", "alice"), mk("o2", "alice:x"), mk("o3", "alic")); err != nil {
		t.Fatalf("record: %v", err)
	}

	for owner, want := range map[string]string{"alice": "o1", "alice:x": "o2", "alic": "o3"} {
		got, err := j.OwnerOrders(owner)
		if err != nil {
			t.Fatalf("owner orders: %v", err)
		}
		if len(got) != 1 || got[0].ID != want {
			t.Errorf("OwnerOrders(%q) = %+v, want only %s", owner, got, want)
		}
	}

	ts := now
	nested := testFill("f2", ts, 100)
	nested.Symbol = "BTCUSD:PERP"
	if err := j.RecordFills([]orderbook.Fill{testFill("f1", ts, 100), nested}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := j.RecentFills("BTCUSD", 10)
	if err != nil {
		t.Fatalf("recent fills: %v", err)
	}
	if len(got) != 1 || got[0].ID != "f1" {
		t.Errorf("RecentFills(BTCUSD) = %+v, want only f1", got)
	}
}

func TestJournal_DeliverBatch(t *testing.T) {
	j := openTestJournal(t)
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	b := outbox.Batch{
		Orders: []orderbook.Order{{ID: "o1", Owner: "alice", Symbol: "BTCUSD", Status: orderbook.Pending}},
		Fills:  []orderbook.Fill{testFill("f1", ts, 100)},
	}
	if err := j.Deliver(context.Background(), b); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	fills, _ := j.RecentFills("BTCUSD", 10)
	orders, _ := j.OwnerOrders("alice")
	if len(fills) != 1 || len(orders) != 1 {
		t.Fatalf("fills=%d orders=%d, want 1/1", len(fills), len(orders))
	}
}
