package artifact

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Meta is the searchable subset of an artifact's content.
type Meta struct {
	Hash        string
	Type        Kind
	Timestamp   int64
	Goal        string
	RegimeTags  []string
	Policy      string
	Description string
}

// Query filters indexed artifacts. Zero fields match everything; Tags
// match any-of.
type Query struct {
	Type   Kind
	Goal   string
	Tags   []string
	Policy string
	After  int64
	Before int64
	Limit  int
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	hash TEXT PRIMARY KEY,
	artifact_type TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	goal TEXT,
	policy TEXT,
	description TEXT
);

CREATE TABLE IF NOT EXISTS regime_tags (
	hash TEXT NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (hash, tag)
);

CREATE INDEX IF NOT EXISTS idx_artifact_type ON artifacts(artifact_type);
CREATE INDEX IF NOT EXISTS idx_goal ON artifacts(goal);
CREATE INDEX IF NOT EXISTS idx_timestamp ON artifacts(timestamp);
CREATE INDEX IF NOT EXISTS idx_regime_tag ON regime_tags(tag);
`

// Index keeps artifact metadata in SQLite for fast search.
type Index struct {
	db *sql.DB
}

func NewIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Put upserts an artifact's metadata, replacing any previous tags.
func (ix *Index) Put(m Meta) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO artifacts
		(hash, artifact_type, timestamp, goal, policy, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Hash, string(m.Type), m.Timestamp, m.Goal, m.Policy, m.Description,
	)
	if err != nil {
		return fmt.Errorf("index artifact: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM regime_tags WHERE hash = ?`, m.Hash); err != nil {
		return err
	}
	for _, tag := range m.RegimeTags {
		if _, err := tx.Exec(`INSERT INTO regime_tags (hash, tag) VALUES (?, ?)`, m.Hash, tag); err != nil {
			return fmt.Errorf("index tag: %w", err)
		}
	}

	return tx.Commit()
}

// Get returns metadata for a hash, or false when not indexed.
func (ix *Index) Get(hash Hash) (Meta, bool, error) {
	var m Meta
	var typ string
	var goal, policy, desc sql.NullString

	row := ix.db.QueryRow(`
		SELECT hash, artifact_type, timestamp, goal, policy, description
		FROM artifacts WHERE hash = ?`, string(hash))
	err := row.Scan(&m.Hash, &typ, &m.Timestamp, &goal, &policy, &desc)
	if err == sql.ErrNoRows {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, err
	}

	m.Type = Kind(typ)
	m.Goal = goal.String
	m.Policy = policy.String
	m.Description = desc.String
	m.RegimeTags, err = ix.tags(m.Hash)
	if err != nil {
		return Meta{}, false, err
	}
	return m, true, nil
}

// Search returns indexed artifacts matching the query, newest first.
func (ix *Index) Search(q Query) ([]Meta, error) {
	sqlq := `SELECT DISTINCT a.hash, a.artifact_type, a.timestamp, a.goal, a.policy, a.description
		FROM artifacts a`

	var conds []string
	var args []any

	if len(q.Tags) > 0 {
		sqlq += ` LEFT JOIN regime_tags rt ON a.hash = rt.hash`
		var tagConds []string
		for _, tag := range q.Tags {
			tagConds = append(tagConds, "rt.tag = ?")
			args = append(args, tag)
		}
		conds = append(conds, "("+strings.Join(tagConds, " OR ")+")")
	}
	if q.Type != "" {
		conds = append(conds, "a.artifact_type = ?")
		args = append(args, string(q.Type))
	}
	if q.Goal != "" {
		conds = append(conds, "a.goal = ?")
		args = append(args, q.Goal)
	}
	if q.Policy != "" {
		conds = append(conds, "a.policy = ?")
		args = append(args, q.Policy)
	}
	if q.After != 0 {
		conds = append(conds, "a.timestamp >= ?")
		args = append(args, q.After)
	}
	if q.Before != 0 {
		conds = append(conds, "a.timestamp <= ?")
		args = append(args, q.Before)
	}

	if len(conds) > 0 {
		sqlq += " WHERE " + strings.Join(conds, " AND ")
	}
	sqlq += " ORDER BY a.timestamp DESC"
	if q.Limit > 0 {
		sqlq += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := ix.db.Query(sqlq, args...)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var typ string
		var goal, policy, desc sql.NullString
		if err := rows.Scan(&m.Hash, &typ, &m.Timestamp, &goal, &policy, &desc); err != nil {
			return nil, err
		}
		m.Type = Kind(typ)
		m.Goal = goal.String
		m.Policy = policy.String
		m.Description = desc.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := ix.tags(out[i].Hash)
		if err != nil {
			return nil, err
		}
		out[i].RegimeTags = tags
	}
	return out, nil
}

func (ix *Index) tags(hash string) ([]string, error) {
	rows, err := ix.db.Query(`SELECT tag FROM regime_tags WHERE hash = ? ORDER BY tag`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (ix *Index) Close() error {
	return ix.db.Close()
}
