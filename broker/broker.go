// Package broker defines the order and fill types exchanged between a
// strategy and a broker simulator, and the Sim contract the backtest engine
// drives.
package broker

import "github.com/rustyeddy/quant/market"

// Side of an order or fill.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType selects the execution model for an order.
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// Order is a strategy's intent for one bar. Orders are created fresh each bar
// and consumed exactly once by the broker; they are never persisted.
type Order struct {
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Quantity float64   `json:"quantity"`
	Type     OrderType `json:"type"`

	// LimitPrice applies to limit orders only. 0 means none.
	LimitPrice float64 `json:"limit_price,omitempty"`
}

// Fill is the broker's record of an executed order. Immutable once created;
// the engine appends fills to an ordered log and applies each to the ledger
// exactly once.
type Fill struct {
	Timestamp  int64   `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
}

// Sim simulates broker execution against the current bar. Fills must be
// returned in the same order as the input orders, and two Sims constructed
// with the same seed must produce identical fills for identical input.
type Sim interface {
	ProcessOrders(orders []Order, bar market.Bar) ([]Fill, error)
	Name() string
}
