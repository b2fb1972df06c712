// Package market defines the value types shared by the feed, broker and
// portfolio ledger: price bars and the per-symbol price snapshot the engine
// maintains while replaying them.
package market

// Bar is an immutable OHLCV snapshot for one symbol over one interval.
// Timestamps are Unix seconds so replay ordering never depends on wall-clock
// parsing or timezone state.
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Symbol    string  `json:"symbol"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}
