// Package cost provides trading cost models: commission schedules and
// slippage estimates applied by the broker simulator.
package cost

import "github.com/rustyeddy/quant/broker"

// Model computes trading costs for a prospective fill. Commission must be
// non-negative. Slippage is a price offset; the broker adds it for buys and
// subtracts it for sells.
type Model interface {
	Commission(quantity, price float64) float64
	Slippage(quantity, price float64, side broker.Side) float64
}

// FixedPerShare charges a flat rate per share with an optional minimum.
type FixedPerShare struct {
	PerShare float64
	Minimum  float64
}

func (c FixedPerShare) Commission(quantity, _ float64) float64 {
	commission := abs(quantity) * c.PerShare
	if commission < c.Minimum {
		return c.Minimum
	}
	return commission
}

func (c FixedPerShare) Slippage(_, _ float64, _ broker.Side) float64 {
	return 0
}

// Percentage charges a fraction of traded notional with an optional minimum.
type Percentage struct {
	Rate    float64 // e.g. 0.001 for 0.1%
	Minimum float64
}

func (c Percentage) Commission(quantity, price float64) float64 {
	commission := abs(quantity) * price * c.Rate
	if commission < c.Minimum {
		return c.Minimum
	}
	return commission
}

func (c Percentage) Slippage(_, _ float64, _ broker.Side) float64 {
	return 0
}

// Zero charges nothing. Useful for isolating strategy behavior in tests.
type Zero struct{}

func (Zero) Commission(_, _ float64) float64 {
	return 0
}

func (Zero) Slippage(_, _ float64, _ broker.Side) float64 {
	return 0
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
