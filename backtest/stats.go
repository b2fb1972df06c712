package backtest

import (
	"math"

	"github.com/rustyeddy/quant/portfolio"
)

// TradingDaysPerYear annualizes the Sharpe ratio. Kept as a named constant so
// tests can reason about the sqrt(252) factor explicitly.
const TradingDaysPerYear = 252

// Stats summarizes one completed run. Always derived wholesale from the
// equity history plus fill count and commission, never maintained
// incrementally.
type Stats struct {
	InitialEquity   float64 `json:"initial_equity"`
	FinalEquity     float64 `json:"final_equity"`
	TotalReturn     float64 `json:"total_return"`
	NumTrades       int     `json:"num_trades"`
	TotalCommission float64 `json:"total_commission"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`
}

// CalcStats derives summary statistics from an equity curve.
//
// Degenerate inputs produce zeroed metrics rather than errors: an empty
// history, or an initial equity at or below zero, reports zero return, Sharpe
// and drawdown. A multi-hour backtest should finish with a degenerate result,
// not abort at the summary step.
func CalcStats(history []portfolio.EquityPoint, numTrades int, totalCommission float64) Stats {
	stats := Stats{NumTrades: numTrades, TotalCommission: totalCommission}
	if len(history) == 0 {
		return stats
	}

	stats.InitialEquity = history[0].Equity
	stats.FinalEquity = history[len(history)-1].Equity
	if stats.InitialEquity <= 0 {
		return stats
	}

	stats.TotalReturn = (stats.FinalEquity - stats.InitialEquity) / stats.InitialEquity

	// Per-step returns. Steps starting from non-positive equity are skipped
	// entirely, not treated as zero-return.
	var returns []float64
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Equity
		if prev > 0 {
			returns = append(returns, (history[i].Equity-prev)/prev)
		}
	}

	// Annualized Sharpe over population standard deviation (denominator N).
	if len(returns) >= 2 {
		mean := 0.0
		for _, r := range returns {
			mean += r
		}
		mean /= float64(len(returns))

		variance := 0.0
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns))

		if stdDev := math.Sqrt(variance); stdDev > 0 {
			stats.SharpeRatio = mean / stdDev * math.Sqrt(TradingDaysPerYear)
		}
	}

	stats.MaxDrawdown = MaxDrawdown(history)
	return stats
}

// MaxDrawdown computes the largest peak-to-trough decline as a fraction of
// the peak, with the running peak starting at the first equity point.
func MaxDrawdown(history []portfolio.EquityPoint) float64 {
	if len(history) == 0 {
		return 0
	}

	peak := history[0].Equity
	maxDD := 0.0
	for _, p := range history {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
