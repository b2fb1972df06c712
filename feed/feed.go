// Package feed turns stored market data into the chronological bar stream the
// backtest engine replays. The sequencer is deterministic: any permutation of
// the same bars yields the same output order.
package feed

import (
	"sort"

	"github.com/rustyeddy/quant/market"
)

// SliceFeed yields bars from memory in timestamp order. Construction sorts
// once with a stable sort, so bars sharing a timestamp keep their original
// relative order; Reset rewinds without re-sorting.
type SliceFeed struct {
	bars  []market.Bar
	index int
}

// NewSliceFeed copies bars and sorts the copy by ascending timestamp. The
// caller's slice is left untouched.
func NewSliceFeed(bars []market.Bar) *SliceFeed {
	sorted := make([]market.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return &SliceFeed{bars: sorted}
}

// Next returns the next bar in order, or ok=false once exhausted.
func (f *SliceFeed) Next() (market.Bar, bool) {
	if f.index >= len(f.bars) {
		return market.Bar{}, false
	}
	b := f.bars[f.index]
	f.index++
	return b, true
}

// Reset rewinds the cursor to the first bar.
func (f *SliceFeed) Reset() {
	f.index = 0
}

// Len reports the total number of bars in the feed.
func (f *SliceFeed) Len() int {
	return len(f.bars)
}
