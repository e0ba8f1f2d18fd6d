// Package matching implements the single-instrument matching engine: order
// intake, price-time matching against the resident book and the external
// liquidity snapshot, cancel/update, and the reconciliation pass run on every
// new snapshot.
package matching

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/homebroker/pkg/app/core/market"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/app/core/store"
	"github.com/uhyunpark/homebroker/pkg/util"
)

const DefaultBookDepth = 10

// Engine owns all state for one instrument. Submit, Cancel, Update and
// IngestMarketData run to completion under the write lock; queries share the
// read lock and return copies.
type Engine struct {
	mu sync.RWMutex

	symbol   string
	orders   *store.Orders
	book     *orderbook.Book
	ledger   *store.Ledger
	snapshot market.Snapshot

	lastPrice decimal.NullDecimal
	seq       uint64

	clock util.Clock
	log   *zap.SugaredLogger
	depth int
	newID func() string
}

type Option func(*Engine)

func WithClock(c util.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithLogger(l *zap.SugaredLogger) Option { return func(e *Engine) { e.log = l } }

// WithBookDepth sets how many aggregated levels OrderBook returns per side.
func WithBookDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.depth = n
		}
	}
}

// WithIDGenerator overrides the generator used for fill ids and for orders
// submitted without an id.
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

func New(symbol string, opts ...Option) *Engine {
	orders := store.NewOrders()
	e := &Engine{
		symbol: symbol,
		orders: orders,
		book:   orderbook.NewBook(orders),
		ledger: store.NewLedger(),
		clock:  util.RealClock{},
		log:    zap.NewNop().Sugar(),
		depth:  DefaultBookDepth,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Symbol() string { return e.symbol }

// Submit validates req, stores it as a new order and runs it through the
// matching algorithm. A rejected request leaves no trace.
func (e *Engine) Submit(req orderbook.OrderRequest) ([]orderbook.Fill, orderbook.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := req.Validate(); err != nil {
		return nil, orderbook.Order{}, err
	}
	if req.ID == "" {
		req.ID = e.newID()
	}
	o, err := orderbook.NewOrder(req, e.symbol, e.nextSeq(), e.clock.Now())
	if err != nil {
		return nil, orderbook.Order{}, err
	}
	// a duplicate id is rejected here, before anything is matched
	if err := e.orders.Insert(o); err != nil {
		return nil, orderbook.Order{}, err
	}

	fills := e.process(o)

	e.log.Infow("order_submitted",
		"order_id", o.ID,
		"owner", o.Owner,
		"side", o.Side.String(),
		"kind", o.Kind.String(),
		"qty", o.Qty.String(),
		"price", o.Price.String(),
		"fills", len(fills),
		"status", o.Status.String())

	return fills, *o, nil
}

// IngestMarketData replaces the liquidity snapshot and runs the
// reconciliation pass. An invalid snapshot is rejected without replacing the
// current one.
func (e *Engine) IngestMarketData(bids, asks []market.Level) ([]orderbook.Fill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := market.NewSnapshot(bids, asks, e.clock.Now())
	if err != nil {
		return nil, err
	}
	e.snapshot = snap

	fills := e.reconcile()
	if len(fills) > 0 {
		e.log.Infow("reconcile_fills", "symbol", e.symbol, "fills", len(fills))
	}
	return fills, nil
}

func (e *Engine) nextSeq() uint64 {
	e.seq++
	return e.seq
}
