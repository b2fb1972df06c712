package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quant/broker"
	"github.com/rustyeddy/quant/portfolio"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordFill(runID string, f broker.Fill) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(run_id, timestamp, symbol, side, quantity, price, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, f.Timestamp, f.Symbol, string(f.Side), f.Quantity, f.Price, f.Commission,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(runID string, p portfolio.EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, timestamp, equity)
		VALUES (?, ?, ?)`,
		runID, p.Timestamp, p.Equity,
	)
	return err
}

// FillsByRun returns a run's fills ordered by insertion.
func (j *SQLiteJournal) FillsByRun(runID string) ([]broker.Fill, error) {
	rows, err := j.db.Query(`
		SELECT timestamp, symbol, side, quantity, price, commission
		FROM fills
		WHERE run_id = ?
		ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []broker.Fill
	for rows.Next() {
		var f broker.Fill
		var side string
		if err := rows.Scan(&f.Timestamp, &f.Symbol, &side, &f.Quantity, &f.Price, &f.Commission); err != nil {
			return nil, err
		}
		f.Side = broker.Side(side)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLiteJournal) EquityByRun(runID string) ([]portfolio.EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT timestamp, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.EquityPoint
	for rows.Next() {
		var p portfolio.EquityPoint
		if err := rows.Scan(&p.Timestamp, &p.Equity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
