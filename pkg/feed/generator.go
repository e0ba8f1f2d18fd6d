// Package feed simulates an external venue's market data and drives an
// engine's liquidity snapshot with it.
package feed

import (
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/homebroker/pkg/app/core/market"
)

// Config controls the random walk.
type Config struct {
	BasePrice decimal.Decimal
	TickSize  decimal.Decimal
	Levels    int // per side
	// MaxStep bounds the per-tick move of the mid price.
	MaxStep decimal.Decimal
	// Floor is the lowest mid price the walk may reach.
	Floor decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		BasePrice: decimal.NewFromInt(100000),
		TickSize:  decimal.NewFromInt(10),
		Levels:    5,
		MaxStep:   decimal.NewFromInt(100),
		Floor:     decimal.NewFromInt(1000),
	}
}

// Tick is one generated quote.
type Tick struct {
	Mid  decimal.Decimal
	Bids []market.Level // best (highest) first
	Asks []market.Level // best (lowest) first
}

// Generator produces a random walk of order-book snapshots. Not safe for
// concurrent use.
type Generator struct {
	cfg Config
	rng *rand.Rand
	mid decimal.Decimal
}

func NewGenerator(cfg Config, seed int64) *Generator {
	def := DefaultConfig()
	if !cfg.BasePrice.IsPositive() {
		cfg.BasePrice = def.BasePrice
	}
	if !cfg.TickSize.IsPositive() {
		cfg.TickSize = def.TickSize
	}
	if cfg.Levels <= 0 {
		cfg.Levels = def.Levels
	}
	if !cfg.MaxStep.IsPositive() {
		cfg.MaxStep = def.MaxStep
	}
	if !cfg.Floor.IsPositive() {
		cfg.Floor = cfg.TickSize
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		mid: roundToTick(cfg.BasePrice, cfg.TickSize),
	}
}

// Mid returns the current mid price.
func (g *Generator) Mid() decimal.Decimal { return g.mid }

// Next advances the walk and returns a snapshot whose levels sit at least
// one tick away from the mid on each side.
func (g *Generator) Next() Tick {
	step := g.cfg.MaxStep.Mul(decimal.NewFromFloat(g.uniform(-1, 1)))
	mid := decimal.Max(g.cfg.Floor, g.mid.Add(step))
	g.mid = roundToTick(mid, g.cfg.TickSize)

	spreadMin := g.cfg.TickSize
	spreadMax := g.cfg.TickSize.Mul(decimal.NewFromInt(5))

	bids := make([]market.Level, 0, g.cfg.Levels)
	asks := make([]market.Level, 0, g.cfg.Levels)
	for i := 1; i <= g.cfg.Levels; i++ {
		n := decimal.NewFromInt(int64(i))

		bidOff := g.between(spreadMin, spreadMax).Mul(n)
		askOff := g.between(spreadMin, spreadMax).Mul(n)

		bidPx := roundToTick(g.mid.Sub(bidOff), g.cfg.TickSize)
		if bidPx.GreaterThanOrEqual(g.mid) {
			bidPx = g.mid.Sub(g.cfg.TickSize)
		}
		if bidPx.IsPositive() {
			bids = append(bids, market.Level{Price: bidPx, Qty: g.size()})
		}

		askPx := roundToTick(g.mid.Add(askOff), g.cfg.TickSize)
		if askPx.LessThanOrEqual(g.mid) {
			askPx = g.mid.Add(g.cfg.TickSize)
		}
		asks = append(asks, market.Level{Price: askPx, Qty: g.size()})
	}

	// offsets are random per level, so restore book ordering
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	return Tick{Mid: g.mid, Bids: bids, Asks: asks}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) between(lo, hi decimal.Decimal) decimal.Decimal {
	return lo.Add(hi.Sub(lo).Mul(decimal.NewFromFloat(g.rng.Float64())))
}

// size is a quantity in [0.1, 2.0) with four decimals.
func (g *Generator) size() decimal.Decimal {
	q := decimal.NewFromFloat(g.uniform(0.1, 2.0)).Round(4)
	if !q.IsPositive() {
		return decimal.New(1, -1)
	}
	return q
}

func roundToTick(p, tick decimal.Decimal) decimal.Decimal {
	return p.Div(tick).Round(0).Mul(tick)
}
