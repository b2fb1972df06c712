package journal

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/portfolio"
)

type CSVJournal struct {
	fills  *csv.Writer
	equity *csv.Writer
	ff, ef *os.File
}

func NewCSV(fillsPath, equityPath string) (*CSVJournal, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	ew := csv.NewWriter(ef)

	if err := fw.Write([]string{"run_id", "timestamp", "symbol", "side", "quantity", "price", "commission"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "timestamp", "equity"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{fw, ew, ff, ef}, nil
}

func (j *CSVJournal) RecordFill(runID string, fl broker.Fill) error {
	err := j.fills.Write([]string{
		runID,
		strconv.FormatInt(fl.Timestamp, 10),
		fl.Symbol,
		string(fl.Side),
		f(fl.Quantity),
		f(fl.Price),
		f(fl.Commission),
	})
	if err != nil {
		return err
	}

	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) RecordEquity(runID string, p portfolio.EquityPoint) error {
	err := j.equity.Write([]string{
		runID,
		strconv.FormatInt(p.Timestamp, 10),
		f(p.Equity),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
