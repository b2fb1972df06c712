package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/quant/market"
)

// LoadCSV reads bars from a CSV file with rows
//
//	timestamp,symbol,open,high,low,close,volume
//
// where timestamp is Unix seconds. A single header row is allowed. Files
// ending in .xz are decompressed transparently. Blank lines are skipped;
// anything else malformed is an error, since silently dropping rows would
// change the replay.
func LoadCSV(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		src = xr
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	var bars []market.Bar
	sawFirst := false

	for {
		row, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row.
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") {
				continue
			}
		}

		bar, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
}

func parseBarRow(row []string) (market.Bar, error) {
	if len(row) < 7 {
		return market.Bar{}, fmt.Errorf("bar row needs 7 fields, got %d", len(row))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return market.Bar{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	symbol := strings.TrimSpace(row[1])
	if symbol == "" {
		return market.Bar{}, fmt.Errorf("empty symbol at timestamp %d", ts)
	}

	vals := make([]float64, 5)
	for i, name := range []string{"open", "high", "low", "close", "volume"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+2]), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", name, row[i+2], err)
		}
		vals[i] = v
	}

	return market.Bar{
		Timestamp: ts,
		Symbol:    symbol,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
