package tests

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core"
	"github.com/uhyunpark/homebroker/pkg/app/matching"
	"github.com/uhyunpark/homebroker/pkg/util"
)

func newEngine() *matching.Engine {
	n := 0
	return matching.New("BTCUSD",
		matching.WithClock(util.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))),
		matching.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}))
}

func limit(t testing.TB, e *matching.Engine, owner string, side core.Side, qty, price string) ([]core.Fill, core.Order) {
	t.Helper()
	req, err := core.LimitRequest(owner, side, qty, price)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	fills, o, err := e.Submit(req)
	if err != nil {
		t.Fatalf("submit %s %s@%s: %v", side, qty, price, err)
	}
	return fills, o
}

func mkt(t testing.TB, e *matching.Engine, owner string, side core.Side, qty string) ([]core.Fill, core.Order) {
	t.Helper()
	req, err := core.MarketRequest(owner, side, qty)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	fills, o, err := e.Submit(req)
	if err != nil {
		t.Fatalf("submit market %s %s: %v", side, qty, err)
	}
	return fills, o
}

func levels(t testing.TB, pairs ...string) []core.Level {
	t.Helper()
	out, err := core.Levels(pairs...)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
