package strategies

import (
	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
)

// BuyHold buys a fixed quantity on the first bar of its symbol and then does
// nothing. Useful as a baseline and in accounting tests.
type BuyHold struct {
	symbol   string
	quantity float64
	bought   bool
}

func NewBuyHold(symbol string, quantity float64) *BuyHold {
	return &BuyHold{symbol: symbol, quantity: quantity}
}

func (s *BuyHold) Name() string {
	return "buy_hold"
}

func (s *BuyHold) OnBar(bar market.Bar, _ portfolio.Snapshot) []broker.Order {
	if s.bought || bar.Symbol != s.symbol {
		return nil
	}
	s.bought = true
	return []broker.Order{{
		Symbol:   s.symbol,
		Side:     broker.Buy,
		Quantity: s.quantity,
		Type:     broker.Market,
	}}
}

// Noop never trades. Baseline for conservation tests: with no fills, final
// equity must equal initial cash exactly.
type Noop struct{}

func (Noop) Name() string {
	return "noop"
}

func (Noop) OnBar(_ market.Bar, _ portfolio.Snapshot) []broker.Order {
	return nil
}
