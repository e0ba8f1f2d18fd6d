package market

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

func lv(price, qty string) Level {
	return Level{Price: decimal.RequireFromString(price), Qty: decimal.RequireFromString(qty)}
}

func TestNewSnapshot_Validation(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bids    []Level
		asks    []Level
		wantErr bool
	}{
		{"empty", nil, nil, false},
		{"valid", []Level{lv("99", "1"), lv("98", "2")}, []Level{lv("101", "1"), lv("102", "1")}, false},
		{"equal prices", []Level{lv("99", "1"), lv("99", "2")}, nil, false},
		{"ascending bids", []Level{lv("98", "1"), lv("99", "1")}, nil, true},
		{"descending asks", nil, []Level{lv("102", "1"), lv("101", "1")}, true},
		{"zero price", []Level{lv("0", "1")}, nil, true},
		{"negative qty", nil, []Level{lv("101", "-1")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.bids, tt.asks, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, orderbook.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}

func TestSnapshot_Opposing(t *testing.T) {
	s, err := NewSnapshot([]Level{lv("99", "1")}, []Level{lv("101", "5"), lv("102", "1")}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	ask, ok := s.Opposing(orderbook.Buy)
	if !ok || !ask.Price.Equal(decimal.NewFromInt(101)) {
		t.Errorf("buyer trades against %v, want 101", ask.Price)
	}
	bid, ok := s.Opposing(orderbook.Sell)
	if !ok || !bid.Price.Equal(decimal.NewFromInt(99)) {
		t.Errorf("seller trades against %v, want 99", bid.Price)
	}

	var empty Snapshot
	if _, ok := empty.Opposing(orderbook.Buy); ok {
		t.Error("empty snapshot has no opposing level")
	}
	if !empty.Empty() || s.Empty() {
		t.Error("Empty() mismatch")
	}
}

func TestSnapshot_CopiesInput(t *testing.T) {
	asks := []Level{lv("101", "1")}
	s, _ := NewSnapshot(nil, asks, time.Now())

	asks[0] = lv("1", "1")
	if top, _ := s.BestAsk(); !top.Price.Equal(decimal.NewFromInt(101)) {
		t.Error("snapshot must not alias the caller's slice")
	}

	c := s.Clone()
	c.Asks[0] = lv("5", "1")
	if top, _ := s.BestAsk(); !top.Price.Equal(decimal.NewFromInt(101)) {
		t.Error("clone must not alias the snapshot")
	}
}
