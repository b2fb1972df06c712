package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Repository ties the content store, audit log and metadata index together
// under one root directory.
type Repository struct {
	root  string
	store *Store
	audit *AuditLog
	index *Index
	log   *slog.Logger

	now func() time.Time
}

// Open creates or opens a repository at root.
func Open(root string, log *slog.Logger) (*Repository, error) {
	if log == nil {
		log = slog.Default()
	}

	store, err := NewStore(filepath.Join(root, "objects"))
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	audit, err := NewAuditLog(filepath.Join(root, "audit.log"))
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	index, err := NewIndex(filepath.Join(root, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{
		root:  root,
		store: store,
		audit: audit,
		index: index,
		log:   log,
		now:   time.Now,
	}, nil
}

// Commit stores the artifact, appends an audit entry linking it to its
// parents, and indexes its metadata.
func (r *Repository) Commit(a Artifact, message string, parents []string) (Hash, error) {
	hash, err := r.store.Put(a)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	ts := r.now().Unix()
	entry := Entry{
		Timestamp:    ts,
		ArtifactHash: string(hash),
		ArtifactType: a.Kind(),
		Message:      message,
		Parents:      parents,
	}
	if err := r.audit.Append(entry); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if err := r.index.Put(extractMeta(a, hash, ts)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.log.Debug("artifact committed",
		"hash", string(hash), "type", string(a.Kind()), "parents", len(parents))
	return hash, nil
}

func (r *Repository) Get(hash Hash) (Artifact, error) {
	return r.store.Get(hash)
}

func (r *Repository) Exists(hash Hash) bool {
	return r.store.Exists(hash)
}

// History returns the commits that stored the given artifact.
func (r *Repository) History(hash Hash) ([]Entry, error) {
	return r.audit.EntriesFor(hash)
}

// Commits returns every audit entry in log order.
func (r *Repository) Commits() ([]Entry, error) {
	return r.audit.Entries()
}

func (r *Repository) Search(q Query) ([]Meta, error) {
	return r.index.Search(q)
}

func (r *Repository) Metadata(hash Hash) (Meta, bool, error) {
	return r.index.Get(hash)
}

func (r *Repository) Close() error {
	return r.index.Close()
}

// extractMeta pulls the searchable fields out of each artifact kind.
func extractMeta(a Artifact, hash Hash, ts int64) Meta {
	m := Meta{Hash: string(hash), Type: a.Kind(), Timestamp: ts}

	switch v := a.(type) {
	case StrategySpec:
		m.Goal = v.Goal
		m.RegimeTags = v.RegimeTags
		m.Description = v.Description
	case Dataset:
		m.Description = v.Description
	case BacktestConfig:
		if raw, err := json.Marshal(v.Policy); err == nil {
			m.Policy = string(raw)
		}
	case Trace:
		m.Description = v.Operation
	}
	return m
}
