package match

import (
	"testing"
	"time"
)

func TestSummary(t *testing.T) {
	start := time.Date(2025, time.September, 18, 21, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		cand     Candidate
		expected string
	}{
		{
			name: "full",
			cand: Candidate{
				TeamA: "Alpha", TeamB: "Beta",
				Format: "Bo3", Tournament: "Winter Cup",
				Start: start, End: start.Add(2 * time.Hour),
			},
			expected: "Alpha vs Beta (Bo3) — Winter Cup",
		},
		{
			name:     "no tournament",
			cand:     Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo3"},
			expected: "Alpha vs Beta (Bo3)",
		},
		{
			name:     "no format",
			cand:     Candidate{TeamA: "Alpha", TeamB: "Beta", Tournament: "Winter Cup"},
			expected: "Alpha vs Beta — Winter Cup",
		},
		{
			name:     "teams only",
			cand:     Candidate{TeamA: "Alpha", TeamB: "Beta"},
			expected: "Alpha vs Beta",
		},
		{
			name:     "placeholder opponent",
			cand:     Candidate{TeamA: "Natus Vincere", TeamB: "TBD"},
			expected: "Natus Vincere vs TBD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cand.Summary(); got != tt.expected {
				t.Errorf("Summary() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestTeamKeyIgnoresLabels(t *testing.T) {
	a := Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo3", Tournament: "Winter Cup"}
	b := Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo5", Tournament: "Winter Cup Finals"}

	if a.TeamKey() != b.TeamKey() {
		t.Errorf("TeamKey mismatch: %q vs %q", a.TeamKey(), b.TeamKey())
	}
	if a.TeamKey() != "Alpha vs Beta" {
		t.Errorf("TeamKey() = %q, expected %q", a.TeamKey(), "Alpha vs Beta")
	}
}

func TestDedupe(t *testing.T) {
	start := time.Date(2025, time.September, 18, 21, 30, 0, 0, time.UTC)

	first := Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo3", Start: start, Link: "https://example.com/1"}
	duplicate := Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo3", Start: start, Link: "https://example.com/other"}
	differentTime := Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo3", Start: start.Add(3 * time.Hour)}
	differentLabel := Candidate{TeamA: "Alpha", TeamB: "Beta", Format: "Bo5", Start: start}

	got := Dedupe([]Candidate{first, duplicate, differentTime, differentLabel})
	if len(got) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", len(got))
	}
	// First-seen wins.
	if got[0].Link != "https://example.com/1" {
		t.Errorf("expected first-seen candidate kept, got link %q", got[0].Link)
	}
}

func TestFilterHorizon(t *testing.T) {
	now := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)

	near := Candidate{TeamA: "A", TeamB: "B", Start: now.Add(24 * time.Hour)}
	far := Candidate{TeamA: "A", TeamB: "C", Start: now.Add(45 * 24 * time.Hour)}

	got := FilterHorizon([]Candidate{near, far}, now, 30*24*time.Hour)
	if len(got) != 1 || got[0].TeamB != "B" {
		t.Errorf("expected only the near candidate, got %v", got)
	}

	// Disabled horizon keeps everything.
	if got := FilterHorizon([]Candidate{near, far}, now, 0); len(got) != 2 {
		t.Errorf("expected 2 candidates with horizon disabled, got %d", len(got))
	}
}

func TestStartsOn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Fatalf("loading Europe/Kyiv: %v", err)
	}

	// 22:30 UTC on Sep 1 is already Sep 2 in Kyiv.
	cand := Candidate{Start: time.Date(2025, time.September, 1, 22, 30, 0, 0, time.UTC)}

	sameDayKyiv := time.Date(2025, time.September, 2, 8, 0, 0, 0, loc)
	if !cand.StartsOn(sameDayKyiv, loc) {
		t.Error("expected candidate to fall on Sep 2 in Kyiv")
	}

	prevDayKyiv := time.Date(2025, time.September, 1, 8, 0, 0, 0, loc)
	if cand.StartsOn(prevDayKyiv, loc) {
		t.Error("did not expect candidate to fall on Sep 1 in Kyiv")
	}
}
