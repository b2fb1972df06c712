package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/market"
)

func fill(ts int64, symbol string, side broker.Side, qty, price, commission float64) broker.Fill {
	return broker.Fill{
		Timestamp:  ts,
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		Price:      price,
		Commission: commission,
	}
}

func TestNewLedgerSeedsHistory(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	assert.Equal(t, 100_000.0, l.Cash())
	assert.Equal(t, 100_000.0, l.Equity())

	history := l.History()
	assert.Len(t, history, 1)
	assert.Equal(t, EquityPoint{Timestamp: 0, Equity: 100_000}, history[0])
}

func TestBuyThenSellRealizesProfit(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 10, 100, 0), prices)

	assert.InDelta(t, 99_000, l.Cash(), 1e-9)
	assert.InDelta(t, 100_000, l.Equity(), 1e-9)
	assert.Equal(t, 0.0, l.RealizedPL())

	prices.Set("AAPL", 110)
	l.ApplyFill(fill(2, "AAPL", broker.Sell, 10, 110, 0), prices)

	assert.InDelta(t, 100, l.RealizedPL(), 1e-9)
	assert.InDelta(t, 100_100, l.Cash(), 1e-9)
	assert.InDelta(t, 100_100, l.Equity(), 1e-9)
	assert.True(t, l.Snapshot().Position("AAPL").IsFlat())
}

func TestPartialCloseKeepsAvgPrice(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 10, 100, 0), prices)

	prices.Set("AAPL", 120)
	l.ApplyFill(fill(2, "AAPL", broker.Sell, 4, 120, 0), prices)

	pos := l.Snapshot().Position("AAPL")
	assert.InDelta(t, 6, pos.Quantity, 1e-9)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 4*20.0, l.RealizedPL(), 1e-9)
}

func TestGrowingPositionReweightsAvgPrice(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 10, 100, 0), prices)

	prices.Set("AAPL", 110)
	l.ApplyFill(fill(2, "AAPL", broker.Buy, 10, 110, 0), prices)

	pos := l.Snapshot().Position("AAPL")
	assert.InDelta(t, 20, pos.Quantity, 1e-9)
	assert.InDelta(t, 105, pos.AvgPrice, 1e-9)
	assert.Equal(t, 0.0, l.RealizedPL())
}

func TestFlipThroughZero(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 10, 100, 0), prices)

	// Sell 15 at 110: close 10 long for +100, open 5 short at 110.
	prices.Set("AAPL", 110)
	l.ApplyFill(fill(2, "AAPL", broker.Sell, 15, 110, 0), prices)

	pos := l.Snapshot().Position("AAPL")
	assert.InDelta(t, -5, pos.Quantity, 1e-9)
	assert.InDelta(t, 110, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 100, l.RealizedPL(), 1e-9)
}

func TestShortSideAccounting(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Sell, 10, 100, 0), prices)

	pos := l.Snapshot().Position("AAPL")
	assert.InDelta(t, -10, pos.Quantity, 1e-9)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 101_000, l.Cash(), 1e-9)

	// Cover at 90: short 10 from 100 realizes +100.
	prices.Set("AAPL", 90)
	l.ApplyFill(fill(2, "AAPL", broker.Buy, 10, 90, 0), prices)

	assert.InDelta(t, 100, l.RealizedPL(), 1e-9)
	assert.InDelta(t, 100_100, l.Cash(), 1e-9)
	assert.True(t, l.Snapshot().Position("AAPL").IsFlat())
}

func TestCommissionReducesCashBothWays(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 10, 100, 2.5), prices)
	assert.InDelta(t, 10_000-1000-2.5, l.Cash(), 1e-9)

	l.ApplyFill(fill(2, "AAPL", broker.Sell, 10, 100, 2.5), prices)
	assert.InDelta(t, 10_000-5, l.Cash(), 1e-9)
	assert.InDelta(t, 5, l.TotalCommission(), 1e-9)
}

func TestCashConservation(t *testing.T) {
	t.Parallel()

	// Round trip with zero commission: final cash differs from initial cash
	// by exactly the realized P/L.
	l := NewLedger(50_000)
	prices := market.NewPriceMap()

	prices.Set("MSFT", 300)
	l.ApplyFill(fill(1, "MSFT", broker.Buy, 20, 300, 0), prices)
	prices.Set("MSFT", 310)
	l.ApplyFill(fill(2, "MSFT", broker.Buy, 5, 310, 0), prices)
	prices.Set("MSFT", 295)
	l.ApplyFill(fill(3, "MSFT", broker.Sell, 25, 295, 0), prices)

	assert.True(t, l.Snapshot().Position("MSFT").IsFlat())
	assert.InDelta(t, 50_000+l.RealizedPL(), l.Cash(), 1e-9)
	assert.InDelta(t, l.Cash(), l.Equity(), 1e-9)
}

func TestUnrealizedPL(t *testing.T) {
	t.Parallel()

	l := NewLedger(100_000)
	prices := market.NewPriceMap()

	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 10, 100, 0), prices)
	assert.InDelta(t, 0, l.UnrealizedPL(prices), 1e-9)

	prices.Set("AAPL", 105)
	assert.InDelta(t, 50, l.UnrealizedPL(prices), 1e-9)
}

func TestUpdateEquityAppendsHistory(t *testing.T) {
	t.Parallel()

	l := NewLedger(1000)
	prices := market.NewPriceMap()

	l.SetTimestamp(10)
	l.UpdateEquity(prices)
	l.SetTimestamp(20)
	l.UpdateEquity(prices)

	history := l.History()
	assert.Len(t, history, 3)
	assert.Equal(t, int64(10), history[1].Timestamp)
	assert.Equal(t, int64(20), history[2].Timestamp)
	assert.Equal(t, 1000.0, history[2].Equity)
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	l := NewLedger(1000)
	prices := market.NewPriceMap()
	prices.Set("AAPL", 100)
	l.ApplyFill(fill(1, "AAPL", broker.Buy, 1, 100, 0), prices)

	snap := l.Snapshot()
	p := snap.Positions["AAPL"]
	p.Quantity = 999
	snap.Positions["AAPL"] = p

	assert.InDelta(t, 1, l.Snapshot().Position("AAPL").Quantity, 1e-9)
}

func TestSnapshotMissingSymbolIsFlat(t *testing.T) {
	t.Parallel()

	snap := NewLedger(1000).Snapshot()
	pos := snap.Position("TSLA")
	assert.Equal(t, "TSLA", pos.Symbol)
	assert.True(t, pos.IsFlat())
}
