package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"matchcal/internal/match"
)

func testCandidates() []match.Candidate {
	start := time.Date(2025, time.September, 18, 21, 30, 0, 0, time.UTC)
	return []match.Candidate{
		{TeamA: "Natus Vincere", TeamB: "M80", Format: "Bo3", Tournament: "Winter Cup",
			Start: start, End: start.Add(2 * time.Hour), Link: "https://example.com/1"},
		{TeamA: "Natus Vincere", TeamB: "FaZe", Format: "Bo3",
			Start: start.Add(24 * time.Hour), End: start.Add(26 * time.Hour)},
	}
}

func TestLoadSnapshotFirstRun(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	snapshot, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snapshot.Candidates) != 0 {
		t.Errorf("expected empty first-run snapshot, got %d candidates", len(snapshot.Candidates))
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cands := testCandidates()
	if err := store.SaveSnapshot(cands); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	snapshot, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snapshot.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(snapshot.Candidates))
	}
	if snapshot.Candidates[0].Key() != cands[0].Key() {
		t.Errorf("round-trip changed identity: %q vs %q", snapshot.Candidates[0].Key(), cands[0].Key())
	}
	if snapshot.UpdatedAt == "" {
		t.Error("expected UpdatedAt to be set")
	}
	if _, err := time.Parse(time.RFC3339, snapshot.UpdatedAt); err != nil {
		t.Errorf("UpdatedAt not RFC3339: %q", snapshot.UpdatedAt)
	}
}

func TestLoadSnapshotCorrupted(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "snapshot.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing corrupt snapshot: %v", err)
	}
	if _, err := store.LoadSnapshot(); err == nil {
		t.Error("expected error for corrupted snapshot")
	}
}

func TestDiff(t *testing.T) {
	cands := testCandidates()

	// Everything is fresh against an empty snapshot.
	fresh := Diff(&Snapshot{}, cands)
	if len(fresh) != 2 {
		t.Fatalf("expected 2 fresh candidates, got %d", len(fresh))
	}

	// Nothing is fresh against an up-to-date snapshot.
	fresh = Diff(&Snapshot{Candidates: cands}, cands)
	if len(fresh) != 0 {
		t.Errorf("expected no fresh candidates, got %d", len(fresh))
	}

	// A rescheduled match counts as fresh: identity includes the start time.
	moved := cands[0]
	moved.Start = moved.Start.Add(2 * time.Hour)
	fresh = Diff(&Snapshot{Candidates: cands}, []match.Candidate{moved, cands[1]})
	if len(fresh) != 1 || fresh[0].TeamB != "M80" {
		t.Errorf("expected the rescheduled candidate to be fresh, got %v", fresh)
	}

	// Nil snapshot behaves like an empty one.
	if fresh := Diff(nil, cands); len(fresh) != 2 {
		t.Errorf("expected 2 fresh candidates with nil snapshot, got %d", len(fresh))
	}
}
