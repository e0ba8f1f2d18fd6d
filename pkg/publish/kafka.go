// Package publish streams executed fills to downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/app/core/outbox"
)

// Publisher is anything that can take a batch of fills.
type Publisher interface {
	PublishFills(ctx context.Context, fills []orderbook.Fill) error
	Close() error
}

// FillMessage is the wire format of a published fill.
type FillMessage struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	BuyOrderID  string `json:"buyOrderId"`
	SellOrderID string `json:"sellOrderId"`
	BuyerID     string `json:"buyerId"`
	SellerID    string `json:"sellerId"`
	Qty         string `json:"qty"`
	Price       string `json:"price"`
	TakerSide   string `json:"takerSide"`
	Liquidity   string `json:"liquidity"`
	Timestamp   int64  `json:"timestamp"` // Unix milliseconds
}

func NewFillMessage(f orderbook.Fill) FillMessage {
	return FillMessage{
		ID:          f.ID,
		Symbol:      f.Symbol,
		BuyOrderID:  f.BuyOrderID,
		SellOrderID: f.SellOrderID,
		BuyerID:     f.BuyerID,
		SellerID:    f.SellerID,
		Qty:         f.Qty.String(),
		Price:       f.Price.String(),
		TakerSide:   f.TakerSide.String(),
		Liquidity:   f.Liquidity.String(),
		Timestamp:   f.Timestamp.UnixMilli(),
	}
}

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishFills writes one message per fill, keyed by symbol so a partition
// sees fills in execution order.
func (p *KafkaProducer) PublishFills(ctx context.Context, fills []orderbook.Fill) error {
	if len(fills) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(fills))
	for _, f := range fills {
		value, err := json.Marshal(NewFillMessage(f))
		if err != nil {
			return errors.Wrapf(err, "marshal fill %s", f.ID)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(f.Symbol),
			Value: value,
			Time:  f.Timestamp,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, "write fills to kafka")
	}
	return nil
}

// Deliver implements outbox.Sink. Only fills are streamed.
func (p *KafkaProducer) Deliver(ctx context.Context, b outbox.Batch) error {
	return p.PublishFills(ctx, b.Fills)
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// Nop drops everything. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishFills(context.Context, []orderbook.Fill) error { return nil }
func (Nop) Close() error                                         { return nil }
