// Package strategies ships the built-in strategies the CLI can run. All of
// them are deterministic functions of the bars they have seen plus the
// portfolio snapshot; none reads a clock or an ambient random source.
package strategies

import (
	"math"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
)

// Signal thresholds for the momentum filter: moves inside ±1% are treated as
// noise and target a flat book.
const (
	momentumEntryThreshold = 0.01
	minRebalanceShares     = 0.1
)

// Momentum is a time-series momentum strategy with volatility targeting. It
// goes long after a positive lookback return, short after a negative one, and
// sizes the position so the portfolio's expected volatility matches VolTarget.
type Momentum struct {
	symbol      string
	lookback    int
	volTarget   float64
	volLookback int

	prices  []float64
	returns []float64
}

func NewMomentum(symbol string, lookback int, volTarget float64, volLookback int) *Momentum {
	return &Momentum{
		symbol:      symbol,
		lookback:    lookback,
		volTarget:   volTarget,
		volLookback: volLookback,
	}
}

func (s *Momentum) Name() string {
	return "ts_momentum"
}

func (s *Momentum) OnBar(bar market.Bar, pf portfolio.Snapshot) []broker.Order {
	if bar.Symbol != s.symbol {
		return nil
	}

	s.prices = append(s.prices, bar.Close)
	if len(s.prices) > s.lookback+s.volLookback {
		s.prices = s.prices[1:]
	}

	if len(s.prices) >= 2 {
		prev := s.prices[len(s.prices)-2]
		s.returns = append(s.returns, (bar.Close-prev)/prev)
		if len(s.returns) > s.volLookback {
			s.returns = s.returns[1:]
		}
	}

	target, ok := s.targetPosition(bar.Close, pf)
	if !ok {
		return nil // not enough history yet
	}

	current := pf.Position(s.symbol).Quantity
	delta := target - current
	if math.Abs(delta) <= minRebalanceShares {
		return nil
	}

	side := broker.Buy
	if delta < 0 {
		side = broker.Sell
		delta = -delta
	}
	return []broker.Order{{
		Symbol:   s.symbol,
		Side:     side,
		Quantity: delta,
		Type:     broker.Market,
	}}
}

func (s *Momentum) targetPosition(price float64, pf portfolio.Snapshot) (float64, bool) {
	momentum, ok := s.momentum()
	if !ok {
		return 0, false
	}
	vol, ok := s.volatility()
	if !ok {
		return 0, false
	}
	if vol < 1e-8 {
		return 0, true
	}

	// Vol targeting: notional = equity * vol_target / realized_vol.
	shares := pf.Equity * s.volTarget / vol / price

	switch {
	case momentum > momentumEntryThreshold:
		return shares, true
	case momentum < -momentumEntryThreshold:
		return -shares, true
	default:
		return 0, true
	}
}

func (s *Momentum) momentum() (float64, bool) {
	if len(s.prices) < s.lookback {
		return 0, false
	}
	start := s.prices[len(s.prices)-s.lookback]
	end := s.prices[len(s.prices)-1]
	return (end - start) / start, true
}

func (s *Momentum) volatility() (float64, bool) {
	if len(s.returns) < s.volLookback {
		return 0, false
	}
	recent := s.returns[len(s.returns)-s.volLookback:]

	mean := 0.0
	for _, r := range recent {
		mean += r
	}
	mean /= float64(len(recent))

	variance := 0.0
	for _, r := range recent {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(recent))

	return math.Sqrt(variance), true
}
