package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Hash is the hex SHA-256 of an artifact's encoded form.
type Hash string

func (h Hash) String() string { return string(h) }

// HashOf computes the content hash of an artifact.
func HashOf(a Artifact) (Hash, error) {
	raw, err := Encode(a)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return Hash(hex.EncodeToString(sum[:])), nil
}

// Store writes artifacts to disk addressed by their hash. Files fan out
// into subdirectories named by the first two hash characters.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Put stores the artifact and returns its hash. Storing the same artifact
// twice is a no-op that returns the same hash.
func (s *Store) Put(a Artifact) (Hash, error) {
	raw, err := Encode(a)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	hash := Hash(hex.EncodeToString(sum[:]))

	path := s.path(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create fan-out dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", hash, err)
	}
	return hash, nil
}

// Get loads an artifact by hash.
func (s *Store) Get(hash Hash) (Artifact, error) {
	raw, err := os.ReadFile(s.path(hash))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", hash, err)
	}
	return Decode(raw)
}

func (s *Store) Exists(hash Hash) bool {
	_, err := os.Stat(s.path(hash))
	return err == nil
}

func (s *Store) path(hash Hash) string {
	h := string(hash)
	if len(h) < 2 {
		return filepath.Join(s.root, h)
	}
	return filepath.Join(s.root, h[:2], h+".json")
}
