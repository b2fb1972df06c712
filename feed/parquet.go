package feed

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/quant/market"
)

// barRecord is the on-disk parquet schema for bar datasets.
type barRecord struct {
	Timestamp int64   `parquet:"timestamp"`
	Symbol    string  `parquet:"symbol"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// LoadParquet reads bars from a parquet file with the barRecord schema.
func LoadParquet(path string) ([]market.Bar, error) {
	records, err := parquet.ReadFile[barRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}

	bars := make([]market.Bar, 0, len(records))
	for _, r := range records {
		bars = append(bars, market.Bar{
			Timestamp: r.Timestamp,
			Symbol:    r.Symbol,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return bars, nil
}

// WriteParquet writes bars to a parquet file with the barRecord schema.
func WriteParquet(path string, bars []market.Bar) error {
	records := make([]barRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, barRecord{
			Timestamp: b.Timestamp,
			Symbol:    b.Symbol,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return parquet.WriteFile(path, records)
}

// Load picks a loader from the file extension: .parquet, or CSV otherwise
// (optionally .xz compressed).
func Load(path string) ([]market.Bar, error) {
	if strings.HasSuffix(path, ".parquet") {
		return LoadParquet(path)
	}
	return LoadCSV(path)
}
