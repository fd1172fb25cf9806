package engine_test

import (
	"testing"
	"time"

	"github.com/plantline/reckon/internal/engine"
)

func sampleRecords() []engine.ReferenceRecord {
	return []engine.ReferenceRecord{
		{ID: "js-1", Kind: engine.KindJobsheet, Operator: "Dan Mason", WorkDate: day(2025, time.March, 10), Site: "Thornbury Depot", Role: "Groundworker"},
		{ID: "js-2", Kind: engine.KindJobsheet, Operator: "Dan Mason", WorkDate: day(2025, time.March, 11), Site: "Thornbury Depot", Role: "Groundworker"},
		{ID: "js-3", Kind: engine.KindJobsheet, Operator: "Dan Mason", WorkDate: day(2025, time.March, 13), Site: "Thornbury Depot", Role: "Groundworker"},
		{ID: "yd-1", Kind: engine.KindYard, Operator: "Dan Mason", WorkDate: day(2025, time.March, 10), Site: "Elm Yard", Role: "Yard Hand"},
		{ID: "js-4", Kind: engine.KindJobsheet, Operator: "Pete Wells", WorkDate: day(2025, time.March, 10), Site: "Thornbury Depot", Role: "Groundworker"},
	}
}

func ids(recs []engine.ReferenceRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestFindCandidatesWindow(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())

	got, err := idx.FindCandidates("Dan Mason", dayPtr(2025, time.March, 10), "Thornbury Depot", 1)
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}

	want := []string{"js-1", "js-2"}
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("candidates = %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("candidates = %v, want %v", gotIDs, want)
			break
		}
	}
}

func TestFindCandidatesZeroTolerance(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())

	got, err := idx.FindCandidates("Dan Mason", dayPtr(2025, time.March, 11), "Thornbury Depot", 0)
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}

	if len(got) != 1 || got[0].ID != "js-2" {
		t.Errorf("candidates = %v, want [js-2]", ids(got))
	}
}

func TestFindCandidatesNilDate(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())

	got, err := idx.FindCandidates("Dan Mason", nil, "Thornbury Depot", 1)
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if got != nil {
		t.Errorf("nil work date should match nothing, got %v", ids(got))
	}
}

func TestFindCandidatesOperatorNormalized(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())

	got, err := idx.FindCandidates("  DAN MASON ", dayPtr(2025, time.March, 10), "Thornbury Depot", 0)
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "js-1" {
		t.Errorf("candidates = %v, want [js-1]", ids(got))
	}
}

func TestFindCandidatesUnknownOperator(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())

	got, err := idx.FindCandidates("Nobody", dayPtr(2025, time.March, 10), "Thornbury Depot", 1)
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("candidates = %v, want none", ids(got))
	}
}

func TestFindCandidatesSiteSubstring(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())

	tests := []struct {
		name string
		site string
		want int
	}{
		{"claimed abbreviates reference", "Thornbury", 1},
		{"claimed extends reference", "Thornbury Depot North", 1},
		{"case and whitespace folded", "  THORNBURY DEPOT ", 1},
		{"unrelated site", "Mill Lane", 0},
		{"blank site matches nothing", "", 0},
		{"whitespace site matches nothing", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.FindCandidates("Dan Mason", dayPtr(2025, time.March, 10), tt.site, 0)
			if err != nil {
				t.Fatalf("FindCandidates() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("candidates = %v, want %d match(es)", ids(got), tt.want)
			}
		})
	}
}

func TestFindCandidatesStableOrder(t *testing.T) {
	recs := sampleRecords()

	// Build from reversed input; candidate order must still be by id.
	reversed := make([]engine.ReferenceRecord, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		reversed = append(reversed, recs[i])
	}

	idx := engine.NewMemoryIndex(reversed)

	got, err := idx.FindCandidates("Dan Mason", dayPtr(2025, time.March, 10), "Thornbury Depot", 1)
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}

	gotIDs := ids(got)
	if len(gotIDs) != 2 || gotIDs[0] != "js-1" || gotIDs[1] != "js-2" {
		t.Errorf("candidates = %v, want [js-1 js-2]", gotIDs)
	}
}

func TestMemoryIndexLen(t *testing.T) {
	idx := engine.NewMemoryIndex(sampleRecords())
	if got := idx.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	empty := engine.NewMemoryIndex(nil)
	if got := empty.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}
