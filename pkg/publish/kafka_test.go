package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaProducer_PublishFills(t *testing.T) {
	w := &captureWriter{}
	p := &KafkaProducer{writer: w}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fills := []orderbook.Fill{
		{
			ID: "f1", Symbol: "BTCUSD",
			BuyOrderID: "b1", SellOrderID: orderbook.SentinelOrderID,
			BuyerID: "alice", SellerID: orderbook.SentinelOwner,
			Qty: decimal.NewFromInt(1), Price: decimal.RequireFromString("101.5"),
			Timestamp: ts, TakerSide: orderbook.Buy, Liquidity: orderbook.LiquiditySynthetic,
		},
	}

	if err := p.PublishFills(context.Background(), fills); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "BTCUSD" {
		t.Errorf("key = %q, want BTCUSD", w.msgs[0].Key)
	}

	var msg FillMessage
	if err := json.Unmarshal(w.msgs[0].Value, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Price != "101.5" || msg.Qty != "1" {
		t.Errorf("price/qty = %s/%s, want 101.5/1", msg.Price, msg.Qty)
	}
	if msg.Liquidity != "synthetic" || msg.TakerSide != "buy" {
		t.Errorf("liquidity/taker = %s/%s", msg.Liquidity, msg.TakerSide)
	}
	if msg.Timestamp != ts.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", msg.Timestamp, ts.UnixMilli())
	}
}

func TestKafkaProducer_EmptyBatchIsNoop(t *testing.T) {
	w := &captureWriter{err: errors.New("must not be called")}
	p := &KafkaProducer{writer: w}
	if err := p.PublishFills(context.Background(), nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
}

func TestKafkaProducer_WrapsWriteError(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	p := &KafkaProducer{writer: w}
	err := p.PublishFills(context.Background(), []orderbook.Fill{{ID: "f1", Symbol: "BTCUSD"}})
	if err == nil {
		t.Fatal("expected error")
	}
}
