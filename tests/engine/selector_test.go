package engine_test

import (
	"slices"
	"testing"
	"time"

	"github.com/plantline/reckon/internal/engine"
)

func candidate(id string, date time.Time, role string, onSite float64) engine.ReferenceRecord {
	return engine.ReferenceRecord{
		ID:          id,
		Kind:        engine.KindJobsheet,
		Operator:    "Dan Mason",
		WorkDate:    date,
		Site:        "Thornbury Depot",
		Role:        role,
		HoursOnSite: onSite,
	}
}

func TestSelectCandidateEmpty(t *testing.T) {
	if got := engine.SelectCandidate(cleanLine(), nil); got != nil {
		t.Errorf("SelectCandidate() = %v, want nil", got)
	}
}

func TestSelectCandidateExactDateWins(t *testing.T) {
	line := cleanLine()

	// The window match agrees on role and hours; the exact-date record does
	// not. Date agreement still outranks everything below it.
	window := candidate("a", day(2025, time.March, 11), "Groundworker", 9.5)
	exact := candidate("b", day(2025, time.March, 10), "Banksman", 4)

	got := engine.SelectCandidate(line, []engine.ReferenceRecord{window, exact})
	if got == nil || got.ID != "b" {
		t.Fatalf("selected = %v, want exact-date record b", got)
	}
}

func TestSelectCandidateRoleBreaksDateTie(t *testing.T) {
	line := cleanLine()

	mismatch := candidate("a", day(2025, time.March, 10), "Banksman", 9.5)
	match := candidate("b", day(2025, time.March, 10), "groundworker", 4)

	got := engine.SelectCandidate(line, []engine.ReferenceRecord{mismatch, match})
	if got == nil || got.ID != "b" {
		t.Fatalf("selected = %v, want role-matching record b", got)
	}
}

func TestSelectCandidateClosestHours(t *testing.T) {
	line := cleanLine() // 9.5 total hours

	far := candidate("a", day(2025, time.March, 10), "Groundworker", 14)
	near := candidate("b", day(2025, time.March, 10), "Groundworker", 9)

	got := engine.SelectCandidate(line, []engine.ReferenceRecord{far, near})
	if got == nil || got.ID != "b" {
		t.Fatalf("selected = %v, want closest-hours record b", got)
	}
}

func TestSelectCandidateIDTieBreak(t *testing.T) {
	line := cleanLine()

	first := candidate("js-001", day(2025, time.March, 10), "Groundworker", 9.5)
	second := candidate("js-002", day(2025, time.March, 10), "Groundworker", 9.5)

	got := engine.SelectCandidate(line, []engine.ReferenceRecord{second, first})
	if got == nil || got.ID != "js-001" {
		t.Fatalf("selected = %v, want lowest id js-001", got)
	}
}

func TestSelectCandidateOrderIndependent(t *testing.T) {
	line := cleanLine()

	candidates := []engine.ReferenceRecord{
		candidate("c", day(2025, time.March, 11), "Groundworker", 9.5),
		candidate("a", day(2025, time.March, 10), "Banksman", 9.5),
		candidate("b", day(2025, time.March, 10), "Groundworker", 12),
		candidate("d", day(2025, time.March, 10), "Groundworker", 9),
	}

	forward := engine.SelectCandidate(line, candidates)

	reversed := slices.Clone(candidates)
	slices.Reverse(reversed)
	backward := engine.SelectCandidate(line, reversed)

	if forward == nil || backward == nil {
		t.Fatal("expected a selection from a non-empty candidate list")
	}
	if forward.ID != backward.ID {
		t.Errorf("selection depends on input order: %s vs %s", forward.ID, backward.ID)
	}
	if forward.ID != "d" {
		t.Errorf("selected = %s, want d (exact date, role match, closest hours)", forward.ID)
	}
}

func TestSelectCandidateDoesNotMutateInput(t *testing.T) {
	line := cleanLine()

	candidates := []engine.ReferenceRecord{
		candidate("b", day(2025, time.March, 10), "Groundworker", 9.5),
		candidate("a", day(2025, time.March, 10), "Groundworker", 9.5),
	}

	engine.SelectCandidate(line, candidates)

	if candidates[0].ID != "b" || candidates[1].ID != "a" {
		t.Error("candidate slice was reordered")
	}
}
