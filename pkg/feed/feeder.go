package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/homebroker/pkg/app/core/market"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/util"
)

// Ingestor is the engine surface the feeder drives.
type Ingestor interface {
	Symbol() string
	IngestMarketData(bids, asks []market.Level) ([]orderbook.Fill, error)
}

// TickHandler is called after every accepted tick with the fills the
// reconciliation pass produced.
type TickHandler func(symbol string, t Tick, fills []orderbook.Fill)

type Feeder struct {
	target   Ingestor
	gen      *Generator
	interval time.Duration
	clock    util.Clock
	log      *zap.SugaredLogger
	onTick   TickHandler
}

type Option func(*Feeder)

func WithClock(c util.Clock) Option { return func(f *Feeder) { f.clock = c } }
func WithLogger(l *zap.SugaredLogger) Option { return func(f *Feeder) { f.log = l } }
func WithTickHandler(h TickHandler) Option { return func(f *Feeder) { f.onTick = h } }

func NewFeeder(target Ingestor, gen *Generator, interval time.Duration, opts ...Option) *Feeder {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	f := &Feeder{
		target:   target,
		gen:      gen,
		interval: interval,
		clock:    util.RealClock{},
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Step generates one tick and feeds it to the target.
func (f *Feeder) Step() (Tick, []orderbook.Fill, error) {
	t := f.gen.Next()
	fills, err := f.target.IngestMarketData(t.Bids, t.Asks)
	if err != nil {
		return t, nil, err
	}
	if f.onTick != nil {
		f.onTick(f.target.Symbol(), t, fills)
	}
	return t, fills, nil
}

// Run ticks every interval until ctx is done.
func (f *Feeder) Run(ctx context.Context) {
	symbol := f.target.Symbol()
	f.log.Infow("feed_started", "symbol", symbol, "interval", f.interval.String())

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			f.log.Infow("feed_stopped", "symbol", symbol, "ticks", ticks)
			return
		case <-f.clock.After(f.interval):
		}

		t, fills, err := f.Step()
		if err != nil {
			f.log.Warnw("feed_tick_rejected", "symbol", symbol, "err", err)
			continue
		}
		ticks++
		f.log.Debugw("feed_tick",
			"symbol", symbol,
			"mid", t.Mid.String(),
			"fills", len(fills))
	}
}
