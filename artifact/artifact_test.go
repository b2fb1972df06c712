package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/market"
)

func sampleSpec() StrategySpec {
	return StrategySpec{
		Name:        "momo-20",
		Description: "time-series momentum, 20 bar lookback",
		Type:        "ts_momentum",
		Params:      map[string]any{"lookback": 20.0, "vol_target": 0.15},
		Goal:        "momentum",
		RegimeTags:  []string{"trending"},
	}
}

func sampleDataset() Dataset {
	return Dataset{
		Name:        "aapl-daily",
		Description: "AAPL daily bars",
		Bars: []market.Bar{
			{Timestamp: 1, Symbol: "AAPL", Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000},
		},
		Meta: DatasetMeta{
			Symbols: []string{"AAPL"}, StartTimestamp: 1, EndTimestamp: 1,
			BarCount: 1, Provider: "local",
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, a := range []Artifact{
		sampleSpec(),
		sampleDataset(),
		BacktestConfig{InitialCash: 1000, Seed: 42, StrategyHash: "aa", DatasetHash: "bb",
			CostModel: CostModelConfig{Model: "zero", Params: map[string]any{}}},
		BacktestResult{ConfigHash: "cc", Stats: backtest.Stats{FinalEquity: 1100}, ExecutedAt: 5},
		Trace{Operation: "backtest", Inputs: []string{"aa"}, Output: "bb", Timestamp: 7},
	} {
		raw, err := Encode(a)
		require.NoError(t, err)

		got, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, a.Kind(), got.Kind())
	}
}

func TestDecodeUnknownTypeFails(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"type":"mystery","data":{}}`))
	assert.Error(t, err)
}

func TestHashIsStable(t *testing.T) {
	t.Parallel()

	h1, err := HashOf(sampleSpec())
	require.NoError(t, err)
	h2, err := HashOf(sampleSpec())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, string(h1), 64)
}

func TestHashChangesWithContent(t *testing.T) {
	t.Parallel()

	a := sampleSpec()
	b := sampleSpec()
	b.Goal = "mean_reversion"

	ha, err := HashOf(a)
	require.NoError(t, err)
	hb, err := HashOf(b)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func TestStorePutGet(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	hash, err := store.Put(sampleSpec())
	require.NoError(t, err)
	assert.True(t, store.Exists(hash))

	got, err := store.Get(hash)
	require.NoError(t, err)

	spec, ok := got.(StrategySpec)
	require.True(t, ok)
	assert.Equal(t, "momo-20", spec.Name)
	assert.Equal(t, []string{"trending"}, spec.RegimeTags)
}

func TestStorePutIsIdempotent(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	h1, err := store.Put(sampleDataset())
	require.NoError(t, err)
	h2, err := store.Put(sampleDataset())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists("deadbeef"))
	_, err = store.Get("deadbeef")
	assert.Error(t, err)
}
