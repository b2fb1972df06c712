package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/portfolio"
)

func cleanRun() (backtest.Stats, []broker.Fill, []portfolio.EquityPoint) {
	history := []portfolio.EquityPoint{
		{Timestamp: 0, Equity: 1000},
		{Timestamp: 1, Equity: 1050},
		{Timestamp: 2, Equity: 980},
		{Timestamp: 3, Equity: 1020},
	}
	fills := []broker.Fill{
		{Timestamp: 1, Symbol: "AAPL", Side: broker.Buy, Quantity: 10, Price: 100},
		{Timestamp: 3, Symbol: "AAPL", Side: broker.Sell, Quantity: 10, Price: 102},
	}
	stats := backtest.CalcStats(history, len(fills), 0)
	return stats, fills, history
}

func TestCleanRunPasses(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	report, err := New(DefaultPolicy()).Verify(stats, fills, history)
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.Equal(t, 0, report.Count())
	assert.Equal(t, history[len(history)-1].Timestamp, report.Timestamp)
}

func TestEmptyHistoryIsError(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultPolicy()).Verify(backtest.Stats{}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestUnrealisticSharpeFlagged(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	stats.SharpeRatio = 42

	report, err := New(DefaultPolicy()).Verify(stats, fills, history)
	require.NoError(t, err)

	assert.False(t, report.Passed)
	require.GreaterOrEqual(t, report.Count(), 1)
	assert.Equal(t, RuleSharpeValidation, report.Violations[0].Rule)
	assert.Equal(t, SeverityMedium, report.Violations[0].Severity)
	assert.False(t, report.HasCritical())
}

func TestDrawdownOutOfBoundsIsCritical(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	stats.MaxDrawdown = 1.5

	report, err := New(Policy{}).Verify(stats, fills, history)
	require.NoError(t, err)
	assert.True(t, report.HasCritical())
}

func TestDrawdownMismatchFlagged(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	stats.MaxDrawdown += 0.05 // beyond recompute tolerance

	report, err := New(Policy{}).Verify(stats, fills, history)
	require.NoError(t, err)

	assert.False(t, report.Passed)
	found := false
	for _, v := range report.Violations {
		if v.Rule == RuleMaxDrawdownValidation && v.Severity == SeverityHigh {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFillBeforeEpochIsCritical(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	fills[0].Timestamp = 0

	report, err := New(Policy{}).Verify(stats, fills, history)
	require.NoError(t, err)
	assert.True(t, report.HasCritical())
	assert.Equal(t, RuleLookaheadBias, report.Violations[0].Rule)
}

func TestOutOfOrderFillsAreCritical(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	fills[0].Timestamp, fills[1].Timestamp = fills[1].Timestamp, fills[0].Timestamp

	report, err := New(Policy{}).Verify(stats, fills, history)
	require.NoError(t, err)
	assert.True(t, report.HasCritical())
}

func TestOutOfOrderEquityIsCritical(t *testing.T) {
	t.Parallel()

	stats, fills, history := cleanRun()
	history[1], history[2] = history[2], history[1]

	report, err := New(Policy{}).Verify(stats, fills, history)
	require.NoError(t, err)
	assert.True(t, report.HasCritical())
}

func TestDrawdownPolicyBreach(t *testing.T) {
	t.Parallel()

	history := []portfolio.EquityPoint{
		{Timestamp: 1, Equity: 1000},
		{Timestamp: 2, Equity: 600},
		{Timestamp: 3, Equity: 900},
	}
	stats := backtest.CalcStats(history, 0, 0)

	report, err := New(DefaultPolicy()).Verify(stats, nil, history)
	require.NoError(t, err)

	assert.False(t, report.Passed)
	found := false
	for _, v := range report.Violations {
		if v.Rule == RuleMaxDrawdownConstraint {
			found = true
			assert.Equal(t, SeverityHigh, v.Severity)
		}
	}
	assert.True(t, found)
}

func TestNegativeEquityIsBankruptcy(t *testing.T) {
	t.Parallel()

	history := []portfolio.EquityPoint{
		{Timestamp: 1, Equity: 1000},
		{Timestamp: 2, Equity: -50},
		{Timestamp: 3, Equity: -80},
	}
	stats := backtest.CalcStats(history, 0, 0)

	report, err := New(DefaultPolicy()).Verify(stats, nil, history)
	require.NoError(t, err)
	assert.True(t, report.HasCritical())

	// Reported once, not per point.
	count := 0
	for _, v := range report.Violations {
		if v.Rule == RuleMaxLeverageConstraint {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNilPolicyFieldsSkipChecks(t *testing.T) {
	t.Parallel()

	history := []portfolio.EquityPoint{
		{Timestamp: 1, Equity: 1000},
		{Timestamp: 2, Equity: 100},
	}
	stats := backtest.CalcStats(history, 0, 0)

	report, err := New(Policy{}).Verify(stats, nil, history)
	require.NoError(t, err)

	for _, v := range report.Violations {
		assert.NotEqual(t, RuleMaxDrawdownConstraint, v.Rule)
		assert.NotEqual(t, RuleMaxLeverageConstraint, v.Rule)
	}
}
