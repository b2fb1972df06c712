package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one commit in the audit log.
type Entry struct {
	Timestamp    int64    `json:"timestamp"`
	ArtifactHash string   `json:"artifact_hash"`
	ArtifactType Kind     `json:"artifact_type"`
	Message      string   `json:"message"`
	Parents      []string `json:"parent_hashes"`
}

// AuditLog is an append-only JSONL file recording every commit and its
// parent artifacts. Together the entries form the lineage graph.
type AuditLog struct {
	path string
}

func NewAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}
	f.Close()
	return &AuditLog{path: path}, nil
}

func (l *AuditLog) Append(e Entry) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Entries returns every commit in log order.
func (l *AuditLog) Entries() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("parse audit entry: %w", err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return out, nil
}

// EntriesFor returns the commits that stored the given artifact.
func (l *AuditLog) EntriesFor(hash Hash) ([]Entry, error) {
	all, err := l.Entries()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.ArtifactHash == string(hash) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Latest returns the most recent commit, or false when the log is empty.
func (l *AuditLog) Latest() (Entry, bool, error) {
	all, err := l.Entries()
	if err != nil || len(all) == 0 {
		return Entry{}, false, err
	}
	return all[len(all)-1], true, nil
}
