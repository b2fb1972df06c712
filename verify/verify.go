package verify

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/portfolio"
)

const (
	// Annualized Sharpe ratios beyond this are flagged as implausible.
	sharpeUnrealisticThreshold = 10.0

	// Tolerance when recomputing max drawdown from the equity curve.
	maxDrawdownTolerance = 0.01
)

var ErrEmptyHistory = errors.New("equity history cannot be empty")

// Policy holds the constraints a run is verified against. Nil fields are
// unconstrained.
type Policy struct {
	MaxDrawdown *float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxLeverage *float64 `yaml:"max_leverage" json:"max_leverage"`
	MaxTurnover *float64 `yaml:"max_turnover" json:"max_turnover"`
}

// DefaultPolicy allows 25% drawdown and 2x leverage, with no turnover limit.
func DefaultPolicy() Policy {
	dd := 0.25
	lev := 2.0
	return Policy{MaxDrawdown: &dd, MaxLeverage: &lev}
}

// Verifier checks a run's exported stats, fills and equity curve.
type Verifier struct {
	policy Policy
}

func New(policy Policy) *Verifier {
	return &Verifier{policy: policy}
}

// Verify runs every check and returns the collected report. Only a run with
// no exported equity at all is an error; findings, however severe, are data.
func (v *Verifier) Verify(stats backtest.Stats, fills []broker.Fill, history []portfolio.EquityPoint) (Report, error) {
	if len(history) == 0 {
		return Report{}, ErrEmptyHistory
	}

	report := NewReport(history[len(history)-1].Timestamp)

	v.checkMetrics(stats, history, &report)
	v.checkChronology(fills, history, &report)
	v.checkPolicy(stats, history, &report)

	return report, nil
}

// checkMetrics validates the reported headline numbers against the curve.
func (v *Verifier) checkMetrics(stats backtest.Stats, history []portfolio.EquityPoint, report *Report) {
	if math.IsInf(stats.SharpeRatio, 0) || math.Abs(stats.SharpeRatio) > sharpeUnrealisticThreshold {
		report.Add(Violation{
			Rule:     RuleSharpeValidation,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("Sharpe ratio is unrealistically high: %.2f", stats.SharpeRatio),
			Evidence: []string{
				fmt.Sprintf("annualized Sharpe above %.0f is extremely rare in practice", sharpeUnrealisticThreshold),
				"check the annualization factor (sqrt(252) for daily bars)",
			},
		})
	}

	if stats.MaxDrawdown < 0 || stats.MaxDrawdown > 1 {
		report.Add(Violation{
			Rule:     RuleMaxDrawdownValidation,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("max drawdown out of bounds [0, 1]: %.4f", stats.MaxDrawdown),
		})
	}

	computed := backtest.MaxDrawdown(history)
	if diff := math.Abs(stats.MaxDrawdown - computed); diff > maxDrawdownTolerance {
		report.Add(Violation{
			Rule:     RuleMaxDrawdownValidation,
			Severity: SeverityHigh,
			Message: fmt.Sprintf("max drawdown mismatch: reported %.4f vs recomputed %.4f",
				stats.MaxDrawdown, computed),
			Evidence: []string{fmt.Sprintf("difference: %.4f", diff)},
		})
	}
}

// checkChronology flags temporal inconsistencies that usually indicate
// lookahead bugs: fills stamped before the epoch, fills out of order, or an
// equity curve that runs backwards.
func (v *Verifier) checkChronology(fills []broker.Fill, history []portfolio.EquityPoint, report *Report) {
	for i, f := range fills {
		if f.Timestamp <= 0 {
			report.Add(Violation{
				Rule:     RuleLookaheadBias,
				Severity: SeverityCritical,
				Message:  "fill has invalid timestamp",
				Evidence: []string{fmt.Sprintf("fill #%d: timestamp = %d", i, f.Timestamp)},
			})
		}
	}

	for i := 1; i < len(fills); i++ {
		if fills[i].Timestamp < fills[i-1].Timestamp {
			report.Add(Violation{
				Rule:     RuleLookaheadBias,
				Severity: SeverityCritical,
				Message:  "fills are not in chronological order",
				Evidence: []string{fmt.Sprintf("fill #%d (t=%d) precedes fill #%d (t=%d)",
					i, fills[i].Timestamp, i-1, fills[i-1].Timestamp)},
			})
		}
	}

	for i := 1; i < len(history); i++ {
		if history[i].Timestamp < history[i-1].Timestamp {
			report.Add(Violation{
				Rule:     RuleLookaheadBias,
				Severity: SeverityCritical,
				Message:  "equity history is not in chronological order",
				Evidence: []string{fmt.Sprintf("point #%d (t=%d) precedes point #%d (t=%d)",
					i, history[i].Timestamp, i-1, history[i-1].Timestamp)},
			})
		}
	}
}

func (v *Verifier) checkPolicy(stats backtest.Stats, history []portfolio.EquityPoint, report *Report) {
	if limit := v.policy.MaxDrawdown; limit != nil && stats.MaxDrawdown > *limit {
		report.Add(Violation{
			Rule:     RuleMaxDrawdownConstraint,
			Severity: SeverityHigh,
			Message: fmt.Sprintf("max drawdown %.2f%% exceeds limit %.2f%%",
				stats.MaxDrawdown*100, *limit*100),
			Evidence: []string{
				fmt.Sprintf("observed: %.4f", stats.MaxDrawdown),
				fmt.Sprintf("limit: %.4f", *limit),
			},
		})
	}

	if limit := v.policy.MaxLeverage; limit != nil {
		for i, p := range history {
			if p.Equity < 0 {
				report.Add(Violation{
					Rule:     RuleMaxLeverageConstraint,
					Severity: SeverityCritical,
					Message:  "negative equity detected (bankruptcy)",
					Evidence: []string{
						fmt.Sprintf("point #%d: timestamp=%d, equity=%.2f", i, p.Timestamp, p.Equity),
						fmt.Sprintf("max leverage limit: %.2fx", *limit),
					},
				})
				break // one finding is enough
			}
		}
	}
}
