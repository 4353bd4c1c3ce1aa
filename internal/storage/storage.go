package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"matchcal/internal/match"
)

// Snapshot records the candidate set discovered by the previous run. It only
// feeds run-over-run diff display; reconciliation idempotence rests on the
// calendar itself.
type Snapshot struct {
	Candidates []match.Candidate `json:"candidates"`
	UpdatedAt  string            `json:"updated_at"` // RFC3339 timestamp
}

// Storage handles persistence of candidate snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

func (s *Storage) snapshotPath() string {
	return filepath.Join(s.dataDir, "snapshot.json")
}

// LoadSnapshot loads the previous snapshot, or an empty one on first run.
func (s *Storage) LoadSnapshot() (*Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snapshot, nil
}

// SaveSnapshot persists the current candidate set.
func (s *Storage) SaveSnapshot(candidates []match.Candidate) error {
	snapshot := Snapshot{
		Candidates: candidates,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(s.snapshotPath(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Diff returns candidates not present in the previous snapshot.
func Diff(previous *Snapshot, current []match.Candidate) []match.Candidate {
	seen := make(map[string]bool)
	if previous != nil {
		for _, cand := range previous.Candidates {
			seen[cand.Key()] = true
		}
	}

	fresh := make([]match.Candidate, 0)
	for _, cand := range current {
		if !seen[cand.Key()] {
			fresh = append(fresh, cand)
		}
	}
	return fresh
}
