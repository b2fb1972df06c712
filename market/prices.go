package market

import "sort"

// PriceMap holds the latest known close price per symbol. The engine updates
// it once per bar and hands it read-only to the ledger.
//
// Symbols are tracked in sorted order so that anything summing over the map
// (equity, unrealized P/L) visits positions in a fixed order. Go map iteration
// order is randomized, and float addition is not associative, so iterating the
// raw map would make equity differ in the low bits between runs.
type PriceMap struct {
	prices  map[string]float64
	symbols []string
}

func NewPriceMap() *PriceMap {
	return &PriceMap{prices: make(map[string]float64)}
}

// Set records price as the current price for symbol, overwriting any prior
// value. Prices for other symbols are unaffected.
func (m *PriceMap) Set(symbol string, price float64) {
	if _, ok := m.prices[symbol]; !ok {
		i := sort.SearchStrings(m.symbols, symbol)
		m.symbols = append(m.symbols, "")
		copy(m.symbols[i+1:], m.symbols[i:])
		m.symbols[i] = symbol
	}
	m.prices[symbol] = price
}

func (m *PriceMap) Get(symbol string) (float64, bool) {
	p, ok := m.prices[symbol]
	return p, ok
}

// Symbols returns all known symbols in ascending order. The returned slice is
// shared; callers must not modify it.
func (m *PriceMap) Symbols() []string {
	return m.symbols
}

func (m *PriceMap) Len() int {
	return len(m.prices)
}
