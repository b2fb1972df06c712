// Package backtest drives the event loop: pull a bar, ask the strategy for
// orders, route them through the broker simulator, apply fills to the ledger,
// and record equity. One pass over the feed, single-threaded, deterministic.
package backtest

import (
	"fmt"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
)

// BarFeed yields bars in ascending timestamp order. Next reports ok=false at
// the end of the data; Reset rewinds to the first bar.
type BarFeed interface {
	Next() (market.Bar, bool)
	Reset()
}

// Strategy is called once per bar with a read-only snapshot of the portfolio
// and returns zero or more orders. Strategies own their internal state and
// must not expect the snapshot to affect the ledger.
type Strategy interface {
	OnBar(bar market.Bar, pf portfolio.Snapshot) []broker.Order
	Name() string
}

// Engine owns a feed, strategy, broker and ledger for the duration of one
// run. Nothing here may be shared across goroutines or reused after Run.
type Engine struct {
	feed     BarFeed
	strategy Strategy
	broker   broker.Sim
	ledger   *portfolio.Ledger

	fills  []broker.Fill
	prices *market.PriceMap
}

func NewEngine(feed BarFeed, strategy Strategy, sim broker.Sim, initialCash float64) *Engine {
	return &Engine{
		feed:     feed,
		strategy: strategy,
		broker:   sim,
		ledger:   portfolio.NewLedger(initialCash),
		prices:   market.NewPriceMap(),
	}
}

// Run replays the feed to exhaustion. Each bar: update the price snapshot,
// let the strategy emit orders, fill them, apply fills in broker order, then
// take one bar-end equity sample whether or not anything traded. A broker
// error aborts the run immediately; fills applied before the error remain
// applied (each application is atomic), but no further bars are processed.
func (e *Engine) Run() error {
	for {
		bar, ok := e.feed.Next()
		if !ok {
			return nil
		}

		e.prices.Set(bar.Symbol, bar.Close)

		orders := e.strategy.OnBar(bar, e.ledger.Snapshot())
		if len(orders) > 0 {
			fills, err := e.broker.ProcessOrders(orders, bar)
			if err != nil {
				return fmt.Errorf("backtest: bar %d %s: %w", bar.Timestamp, bar.Symbol, err)
			}
			for _, f := range fills {
				e.ledger.ApplyFill(f, e.prices)
			}
			e.fills = append(e.fills, fills...)
		}

		e.ledger.SetTimestamp(bar.Timestamp)
		e.ledger.UpdateEquity(e.prices)
	}
}

// Fills returns the ordered fill log. Read-only after Run.
func (e *Engine) Fills() []broker.Fill {
	return e.fills
}

// EquityHistory returns the recorded equity curve. Read-only after Run.
func (e *Engine) EquityHistory() []portfolio.EquityPoint {
	return e.ledger.History()
}

func (e *Engine) RealizedPL() float64 {
	return e.ledger.RealizedPL()
}

func (e *Engine) UnrealizedPL() float64 {
	return e.ledger.UnrealizedPL(e.prices)
}

func (e *Engine) TotalCommission() float64 {
	return e.ledger.TotalCommission()
}

func (e *Engine) NumTrades() int {
	return len(e.fills)
}

// Portfolio returns a snapshot of the final portfolio state.
func (e *Engine) Portfolio() portfolio.Snapshot {
	return e.ledger.Snapshot()
}
