package journal

import (
	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/portfolio"
)

// Journal persists the raw output of a run: every fill and every equity
// sample, keyed by run ID so multiple runs can share one store.
type Journal interface {
	RecordFill(runID string, f broker.Fill) error
	RecordEquity(runID string, p portfolio.EquityPoint) error
	Close() error
}

// Querier is implemented by journals that can read runs back out.
type Querier interface {
	FillsByRun(runID string) ([]broker.Fill, error)
	EquityByRun(runID string) ([]portfolio.EquityPoint, error)
}
