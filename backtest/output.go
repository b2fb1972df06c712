package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/portfolio"
)

// WriteTradesCSV writes the fill log as CSV.
func WriteTradesCSV(fills []broker.Fill, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "symbol", "side", "quantity", "price", "commission"}); err != nil {
		return err
	}
	for _, fill := range fills {
		row := []string{
			strconv.FormatInt(fill.Timestamp, 10),
			fill.Symbol,
			string(fill.Side),
			strconv.FormatFloat(fill.Quantity, 'g', -1, 64),
			strconv.FormatFloat(fill.Price, 'g', -1, 64),
			strconv.FormatFloat(fill.Commission, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteEquityCSV writes the equity curve as CSV.
func WriteEquityCSV(history []portfolio.EquityPoint, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "equity"}); err != nil {
		return err
	}
	for _, p := range history {
		row := []string{
			strconv.FormatInt(p.Timestamp, 10),
			strconv.FormatFloat(p.Equity, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteStatsJSON writes run statistics as indented JSON.
func WriteStatsJSON(stats Stats, path string) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// PrintSummary writes a human-readable run summary.
func PrintSummary(w io.Writer, strategy string, stats Stats) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Summary")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Strategy:         %s\n", strategy)
	fmt.Fprintf(w, "Initial equity:   %.2f\n", stats.InitialEquity)
	fmt.Fprintf(w, "Final equity:     %.2f\n", stats.FinalEquity)
	fmt.Fprintf(w, "Total return:     %.2f%%\n", stats.TotalReturn*100)
	fmt.Fprintf(w, "Trades:           %d\n", stats.NumTrades)
	fmt.Fprintf(w, "Total commission: %.2f\n", stats.TotalCommission)
	fmt.Fprintf(w, "Sharpe ratio:     %.4f\n", stats.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown:     %.2f%%\n", stats.MaxDrawdown*100)
}
