// Package sim implements a deterministic broker simulator that fills market
// orders at the close of the bar they arrive on.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/cost"
	"github.com/rustyeddy/quant/market"
)

var ErrInvalidQuantity = errors.New("order quantity must be positive")

// Broker fills every market order unconditionally at bar close, applying the
// cost model's commission and slippage. Limit orders are not matched; they are
// dropped with a warning so a strategy emitting them is visible rather than
// silently inert.
type Broker struct {
	costs cost.Model
	log   *slog.Logger

	// rng is reserved for stochastic fill models (partial fills, random
	// slippage). It currently draws nothing, but seeding it up front keeps the
	// construction contract stable: identical seeds must mean identical fills,
	// now and after such models exist.
	rng *rand.Rand

	droppedLimit int
}

// New returns a Broker using the given cost model and seed. A nil logger
// falls back to slog.Default.
func New(costs cost.Model, seed int64, log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	return &Broker{
		costs: costs,
		log:   log,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ProcessOrders executes orders against the current bar. Fills come back in
// input order. An order with non-positive quantity is rejected outright; the
// caller should treat that as a strategy bug and abort the run.
func (b *Broker) ProcessOrders(orders []broker.Order, bar market.Bar) ([]broker.Fill, error) {
	var fills []broker.Fill

	for _, o := range orders {
		if o.Quantity <= 0 {
			return nil, fmt.Errorf("process orders: %w: %s %s qty=%v",
				ErrInvalidQuantity, o.Side, o.Symbol, o.Quantity)
		}

		switch o.Type {
		case broker.Market:
			price := bar.Close

			commission := b.costs.Commission(o.Quantity, price)
			slippage := b.costs.Slippage(o.Quantity, price, o.Side)
			if o.Side == broker.Buy {
				price += slippage
			} else {
				price -= slippage
			}

			fills = append(fills, broker.Fill{
				Timestamp:  bar.Timestamp,
				Symbol:     o.Symbol,
				Side:       o.Side,
				Quantity:   o.Quantity,
				Price:      price,
				Commission: commission,
			})

		case broker.Limit:
			// Limit matching needs intra-bar price paths we don't simulate.
			b.droppedLimit++
			b.log.Warn("dropping unsupported limit order",
				"symbol", o.Symbol,
				"side", o.Side,
				"quantity", o.Quantity,
				"limit_price", o.LimitPrice)

		default:
			return nil, fmt.Errorf("process orders: unknown order type %q", o.Type)
		}
	}

	return fills, nil
}

// DroppedLimitOrders reports how many limit orders were discarded so far.
func (b *Broker) DroppedLimitOrders() int {
	return b.droppedLimit
}

func (b *Broker) Name() string {
	return "sim"
}
