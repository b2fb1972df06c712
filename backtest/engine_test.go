package backtest

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/broker/sim"
	"github.com/rustyeddy/quant/cost"
	"github.com/rustyeddy/quant/feed"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
	"github.com/rustyeddy/quant/strategies"
)

func makeBars(closes ...float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Timestamp: int64(i + 1),
			Symbol:    "AAPL",
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func TestBuyHoldRun(t *testing.T) {
	t.Parallel()

	bars := makeBars(100, 110, 120)
	engine := NewEngine(
		feed.NewSliceFeed(bars),
		strategies.NewBuyHold("AAPL", 10),
		sim.New(cost.Zero{}, 1, nil),
		10_000,
	)
	require.NoError(t, engine.Run())

	require.Len(t, engine.Fills(), 1)
	assert.Equal(t, broker.Buy, engine.Fills()[0].Side)
	assert.Equal(t, 100.0, engine.Fills()[0].Price)

	// 10 shares bought at 100, marked at 120: +200 paper.
	assert.InDelta(t, 200, engine.UnrealizedPL(), 1e-9)
	assert.Equal(t, 0.0, engine.RealizedPL())

	history := engine.EquityHistory()
	final := history[len(history)-1]
	assert.InDelta(t, 10_200, final.Equity, 1e-9)
	assert.Equal(t, int64(3), final.Timestamp)
}

func TestNoopRunConservesCash(t *testing.T) {
	t.Parallel()

	engine := NewEngine(
		feed.NewSliceFeed(makeBars(100, 90, 80)),
		strategies.Noop{},
		sim.New(cost.Zero{}, 1, nil),
		5_000,
	)
	require.NoError(t, engine.Run())

	assert.Empty(t, engine.Fills())
	for _, p := range engine.EquityHistory() {
		assert.Equal(t, 5_000.0, p.Equity)
	}
}

func TestEmptyFeed(t *testing.T) {
	t.Parallel()

	engine := NewEngine(feed.NewSliceFeed(nil), strategies.Noop{}, sim.New(cost.Zero{}, 1, nil), 1_000)
	require.NoError(t, engine.Run())

	// Seed point only.
	history := engine.EquityHistory()
	require.Len(t, history, 1)
	assert.Equal(t, 1_000.0, history[0].Equity)
	assert.Equal(t, 0, engine.NumTrades())
}

func TestOneEquitySamplePerBar(t *testing.T) {
	t.Parallel()

	bars := makeBars(100, 101, 102, 103)
	engine := NewEngine(
		feed.NewSliceFeed(bars),
		strategies.NewBuyHold("AAPL", 1),
		sim.New(cost.Zero{}, 1, nil),
		1_000,
	)
	require.NoError(t, engine.Run())

	// Seed point, one point for the fill, one bar-end point per bar.
	assert.Len(t, engine.EquityHistory(), 1+1+len(bars))
}

func TestBrokerErrorAbortsRun(t *testing.T) {
	t.Parallel()

	engine := NewEngine(
		feed.NewSliceFeed(makeBars(100, 110)),
		badStrategy{},
		sim.New(cost.Zero{}, 1, nil),
		1_000,
	)
	err := engine.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrInvalidQuantity)
}

type badStrategy struct{}

func (badStrategy) Name() string { return "bad" }
func (badStrategy) OnBar(bar market.Bar, _ portfolio.Snapshot) []broker.Order {
	return []broker.Order{{Symbol: bar.Symbol, Side: broker.Buy, Quantity: -1, Type: broker.Market}}
}

// runDigest fingerprints a run's full output so determinism tests compare
// everything at once.
func runDigest(t *testing.T, seed int64) string {
	t.Helper()

	bars := makeBars(100, 103, 99, 104, 108, 102, 110, 101, 97, 105,
		109, 113, 107, 111, 115, 104, 118, 112, 120, 116,
		114, 119, 123, 117, 121)

	engine := NewEngine(
		feed.NewSliceFeed(bars),
		strategies.NewMomentum("AAPL", 5, 0.15, 5),
		sim.New(cost.FixedPerShare{PerShare: 0.005, Minimum: 1}, seed, nil),
		100_000,
	)
	require.NoError(t, engine.Run())

	h := sha256.New()
	for _, f := range engine.Fills() {
		fmt.Fprintf(h, "%d|%s|%s|%.12f|%.12f|%.12f\n",
			f.Timestamp, f.Symbol, f.Side, f.Quantity, f.Price, f.Commission)
	}
	for _, p := range engine.EquityHistory() {
		fmt.Fprintf(h, "%d|%.12f\n", p.Timestamp, p.Equity)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	first := runDigest(t, 42)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, runDigest(t, 42))
	}
}
