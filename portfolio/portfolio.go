// Package portfolio is the accounting core of a backtest run. The Ledger owns
// cash, per-symbol positions, realized P/L, cumulative commission and the
// equity time series, and applies each fill as one atomic state transition.
package portfolio

import (
	"math"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/market"
)

// FlatEpsilon is the absolute quantity below which a position counts as flat.
// Floating-point partial closes rarely land on exactly zero.
const FlatEpsilon = 1e-8

// Position is a per-symbol holding. Quantity is signed: positive long,
// negative short. AvgPrice is meaningful only while the position is not flat.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

func (p Position) IsFlat() bool {
	return math.Abs(p.Quantity) < FlatEpsilon
}

func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

func (p Position) UnrealizedPL(price float64) float64 {
	return p.Quantity * (price - p.AvgPrice)
}

// Snapshot is a read-only copy of portfolio state handed to strategies.
// Mutating it has no effect on the ledger.
type Snapshot struct {
	Timestamp int64               `json:"timestamp"`
	Cash      float64             `json:"cash"`
	Positions map[string]Position `json:"positions"`
	Equity    float64             `json:"equity"`
}

// Position returns the holding for symbol, or a zero flat position.
func (s Snapshot) Position(symbol string) Position {
	if p, ok := s.Positions[symbol]; ok {
		return p
	}
	return Position{Symbol: symbol}
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// Ledger tracks portfolio state over one backtest run. It has no error paths:
// every numeric state, including negative equity, is representable. Whether a
// bankrupt run is acceptable is a policy question for the verifier, not an
// accounting one.
type Ledger struct {
	timestamp int64
	cash      float64
	equity    float64

	// positions is keyed by symbol. Entries are created lazily on first fill
	// and kept (flat, quantity 0) after a full close. Symbol order for
	// deterministic valuation comes from the PriceMap, never from this map.
	positions map[string]*Position

	realizedPL      float64
	totalCommission float64
	history         []EquityPoint
}

// NewLedger seeds equity history with (0, initialCash) so even a zero-bar run
// exports a well-formed curve.
func NewLedger(initialCash float64) *Ledger {
	return &Ledger{
		cash:      initialCash,
		equity:    initialCash,
		positions: make(map[string]*Position),
		history:   []EquityPoint{{Timestamp: 0, Equity: initialCash}},
	}
}

// ApplyFill applies one fill and then re-marks equity against prices. The
// accounting rules:
//
//   - Realized P/L accrues only when the fill opposes the existing position,
//     on min(|delta|, |held|) shares against the held average price.
//   - A fill that flips the position through zero realizes the overlap and
//     opens the remainder at the fill price.
//   - Average price is recomputed (weighted) only while the position grows in
//     its own direction. Reducing without flipping keeps the average price;
//     the realized P/L above already accounted for the reduction.
//   - Buys pay quantity*price plus commission; sells receive quantity*price
//     minus commission. Commission is always paid, never netted.
func (l *Ledger) ApplyFill(f broker.Fill, prices *market.PriceMap) {
	l.timestamp = f.Timestamp

	pos, ok := l.positions[f.Symbol]
	if !ok {
		pos = &Position{Symbol: f.Symbol}
		l.positions[f.Symbol] = pos
	}

	oldQty := pos.Quantity
	delta := f.Quantity
	if f.Side == broker.Sell {
		delta = -f.Quantity
	}
	newQty := oldQty + delta

	if math.Abs(oldQty) > FlatEpsilon {
		opposing := (oldQty > 0 && delta < 0) || (oldQty < 0 && delta > 0)
		if opposing {
			closedQty := min(math.Abs(delta), math.Abs(oldQty))
			if oldQty > 0 {
				l.realizedPL += closedQty * (f.Price - pos.AvgPrice)
			} else {
				l.realizedPL += closedQty * (pos.AvgPrice - f.Price)
			}
		}
	}

	switch {
	case math.Abs(newQty) < FlatEpsilon:
		pos.Quantity = 0
		pos.AvgPrice = 0

	case (oldQty >= 0) != (newQty >= 0):
		// Flipped through zero: the remainder is a fresh position entered at
		// the fill price.
		pos.Quantity = newQty
		pos.AvgPrice = f.Price

	default:
		growing := (oldQty >= 0 && newQty > oldQty) || (oldQty <= 0 && newQty < oldQty)
		if growing {
			pos.AvgPrice = (oldQty*pos.AvgPrice + delta*f.Price) / newQty
		}
		pos.Quantity = newQty
	}

	if f.Side == broker.Buy {
		l.cash -= f.Quantity*f.Price + f.Commission
	} else {
		l.cash += f.Quantity*f.Price - f.Commission
	}
	l.totalCommission += f.Commission

	l.UpdateEquity(prices)
}

// UpdateEquity recomputes equity as cash plus the mark-to-market value of all
// positions and appends a point to the history. Positions whose symbol has no
// known price contribute zero; that is a known limitation of close-only
// marking, not an error. The history only ever grows, one entry per call.
func (l *Ledger) UpdateEquity(prices *market.PriceMap) {
	value := 0.0
	for _, symbol := range prices.Symbols() {
		if pos, ok := l.positions[symbol]; ok {
			price, _ := prices.Get(symbol)
			value += pos.MarketValue(price)
		}
	}
	l.equity = l.cash + value
	l.history = append(l.history, EquityPoint{Timestamp: l.timestamp, Equity: l.equity})
}

// SetTimestamp advances the ledger clock without touching any balance, so a
// bar-end equity sample is stamped with the bar time even when no fill landed.
func (l *Ledger) SetTimestamp(ts int64) {
	l.timestamp = ts
}

// Snapshot copies the current portfolio state for a strategy to inspect.
func (l *Ledger) Snapshot() Snapshot {
	positions := make(map[string]Position, len(l.positions))
	for symbol, pos := range l.positions {
		positions[symbol] = *pos
	}
	return Snapshot{
		Timestamp: l.timestamp,
		Cash:      l.cash,
		Positions: positions,
		Equity:    l.equity,
	}
}

func (l *Ledger) Cash() float64 {
	return l.cash
}

func (l *Ledger) Equity() float64 {
	return l.equity
}

func (l *Ledger) RealizedPL() float64 {
	return l.realizedPL
}

// UnrealizedPL recomputes paper P/L from prices on every call; it is never
// cached.
func (l *Ledger) UnrealizedPL(prices *market.PriceMap) float64 {
	unrealized := 0.0
	for _, symbol := range prices.Symbols() {
		if pos, ok := l.positions[symbol]; ok {
			price, _ := prices.Get(symbol)
			unrealized += pos.UnrealizedPL(price)
		}
	}
	return unrealized
}

func (l *Ledger) TotalCommission() float64 {
	return l.totalCommission
}

// History returns the equity curve recorded so far. The slice is shared;
// callers must treat it as read-only.
func (l *Ledger) History() []EquityPoint {
	return l.history
}

