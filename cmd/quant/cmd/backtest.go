package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/artifact"
	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/broker/sim"
	"github.com/rustyeddy/quant/config"
	"github.com/rustyeddy/quant/cost"
	"github.com/rustyeddy/quant/feed"
	"github.com/rustyeddy/quant/journal"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/pkg/id"
	"github.com/rustyeddy/quant/strategies"
	"github.com/rustyeddy/quant/verify"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest from a config file",
	RunE:  runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}

	log := slog.Default()
	runID := id.New()
	log.Info("starting backtest", "run_id", runID, "data", cfg.Data.Path)

	bars, err := feed.Load(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s", cfg.Data.Path)
	}

	strategy, err := strategyByName(cfg.Strategy)
	if err != nil {
		return err
	}
	costs, err := costByName(cfg.Costs)
	if err != nil {
		return err
	}

	broker := sim.New(costs, cfg.Seed, log)
	engine := backtest.NewEngine(feed.NewSliceFeed(bars), strategy, broker, cfg.InitialCash)
	if err := engine.Run(); err != nil {
		return err
	}

	stats := backtest.CalcStats(engine.EquityHistory(), engine.NumTrades(), engine.TotalCommission())
	backtest.PrintSummary(os.Stdout, strategy.Name(), stats)
	if n := broker.DroppedLimitOrders(); n > 0 {
		log.Warn("limit orders were dropped", "count", n)
	}

	report, err := verify.New(cfg.Policy).Verify(stats, engine.Fills(), engine.EquityHistory())
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	printReport(os.Stdout, report)

	if cfg.Output.Dir != "" {
		if err := writeOutputs(cfg.Output.Dir, engine, stats); err != nil {
			return err
		}
		log.Info("outputs written", "dir", cfg.Output.Dir)
	}

	if err := journalRun(cfg.Journal, runID, engine); err != nil {
		return err
	}

	if cfg.Store.Path != "" {
		if err := commitRun(cfg, bars, strategy.Name(), stats, engine, report, log); err != nil {
			return err
		}
	}

	if report.HasCritical() {
		return fmt.Errorf("verification found critical violations")
	}
	return nil
}

func writeOutputs(dir string, engine *backtest.Engine, stats backtest.Stats) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := backtest.WriteTradesCSV(engine.Fills(), filepath.Join(dir, "trades.csv")); err != nil {
		return err
	}
	if err := backtest.WriteEquityCSV(engine.EquityHistory(), filepath.Join(dir, "equity.csv")); err != nil {
		return err
	}
	return backtest.WriteStatsJSON(stats, filepath.Join(dir, "stats.json"))
}

func journalRun(jc config.JournalConfig, runID string, engine *backtest.Engine) error {
	var j journal.Journal
	var err error

	switch jc.Type {
	case "sqlite":
		j, err = journal.NewSQLite(jc.DBPath)
	case "csv":
		j, err = journal.NewCSV(jc.TradesFile, jc.EquityFile)
	case "none", "":
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	for _, f := range engine.Fills() {
		if err := j.RecordFill(runID, f); err != nil {
			return fmt.Errorf("journal fill: %w", err)
		}
	}
	for _, p := range engine.EquityHistory() {
		if err := j.RecordEquity(runID, p); err != nil {
			return fmt.Errorf("journal equity: %w", err)
		}
	}
	return nil
}

// commitRun records the full lineage of a run in the artifact repository:
// dataset and strategy spec first, then the config pointing at both, then
// the result pointing at the config, then the report pointing at the result.
func commitRun(cfg *config.Config, bars []market.Bar, strategyName string,
	stats backtest.Stats, engine *backtest.Engine, report verify.Report, log *slog.Logger) error {

	repo, err := artifact.Open(cfg.Store.Path, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	dataset := datasetFromBars(filepath.Base(cfg.Data.Path), bars)
	datasetHash, err := repo.Commit(dataset, "dataset for "+strategyName+" run", nil)
	if err != nil {
		return err
	}

	spec := artifact.StrategySpec{
		Name:   strategyName,
		Type:   cfg.Strategy.Name,
		Params: strategyParams(cfg.Strategy),
		Goal:   "backtest",
	}
	specHash, err := repo.Commit(spec, "strategy spec", nil)
	if err != nil {
		return err
	}

	btCfg := artifact.BacktestConfig{
		InitialCash:  cfg.InitialCash,
		Seed:         cfg.Seed,
		StrategyHash: string(specHash),
		DatasetHash:  string(datasetHash),
		CostModel: artifact.CostModelConfig{
			Model:  cfg.Costs.Model,
			Params: costParams(cfg.Costs),
		},
		Policy: cfg.Policy,
	}
	cfgHash, err := repo.Commit(btCfg, "backtest config", []string{string(specHash), string(datasetHash)})
	if err != nil {
		return err
	}

	result := artifact.BacktestResult{
		ConfigHash:  string(cfgHash),
		Stats:       stats,
		Fills:       engine.Fills(),
		EquityCurve: engine.EquityHistory(),
		ExecutedAt:  time.Now().Unix(),
	}
	resultHash, err := repo.Commit(result, "backtest result", []string{string(cfgHash)})
	if err != nil {
		return err
	}

	_, err = repo.Commit(artifact.VerifyReport{
		ResultHash: string(resultHash),
		Report:     report,
	}, "verification report", []string{string(resultHash)})
	if err != nil {
		return err
	}

	log.Info("run committed", "result_hash", string(resultHash))
	return nil
}

func datasetFromBars(name string, bars []market.Bar) artifact.Dataset {
	seen := map[string]bool{}
	var syms []string
	for _, b := range bars {
		if !seen[b.Symbol] {
			seen[b.Symbol] = true
			syms = append(syms, b.Symbol)
		}
	}
	sort.Strings(syms)

	meta := artifact.DatasetMeta{
		Symbols:  syms,
		BarCount: len(bars),
		Provider: "local",
	}
	if len(bars) > 0 {
		meta.StartTimestamp = bars[0].Timestamp
		meta.EndTimestamp = bars[len(bars)-1].Timestamp
	}
	return artifact.Dataset{Name: name, Bars: bars, Meta: meta}
}

func strategyParams(sc config.StrategyConfig) map[string]any {
	switch sc.Name {
	case "ts_momentum":
		return map[string]any{
			"symbol": sc.Symbol, "lookback": sc.Lookback,
			"vol_target": sc.VolTarget, "vol_lookback": sc.VolLookback,
		}
	case "buy_hold":
		return map[string]any{"symbol": sc.Symbol, "quantity": sc.Quantity}
	}
	return map[string]any{}
}

func costParams(cc config.CostConfig) map[string]any {
	switch cc.Model {
	case "fixed_per_share":
		return map[string]any{"per_share": cc.PerShare, "minimum": cc.Minimum}
	case "percentage":
		return map[string]any{"rate": cc.Rate, "minimum": cc.Minimum}
	}
	return map[string]any{}
}

func strategyByName(sc config.StrategyConfig) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(sc.Name)) {
	case "noop", "none":
		return strategies.Noop{}, nil
	case "buy_hold":
		return strategies.NewBuyHold(sc.Symbol, sc.Quantity), nil
	case "ts_momentum":
		return strategies.NewMomentum(sc.Symbol, sc.Lookback, sc.VolTarget, sc.VolLookback), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, buy_hold, ts_momentum)", sc.Name)
	}
}

func costByName(cc config.CostConfig) (cost.Model, error) {
	switch strings.ToLower(strings.TrimSpace(cc.Model)) {
	case "zero", "none", "":
		return cost.Zero{}, nil
	case "fixed_per_share":
		return cost.FixedPerShare{PerShare: cc.PerShare, Minimum: cc.Minimum}, nil
	case "percentage":
		return cost.Percentage{Rate: cc.Rate, Minimum: cc.Minimum}, nil
	default:
		return nil, fmt.Errorf("unknown cost model %q (supported: zero, fixed_per_share, percentage)", cc.Model)
	}
}
