package engine

import (
	"slices"
	"strings"
	"time"
)

// MemoryIndex is an immutable in-memory Index over a snapshot of reference
// records. Records are grouped by normalized operator name and held in stable
// id order so candidate sequences are reproducible across runs.
type MemoryIndex struct {
	byOperator map[string][]ReferenceRecord
}

// NewMemoryIndex builds a MemoryIndex from a record snapshot.
func NewMemoryIndex(records []ReferenceRecord) *MemoryIndex {
	idx := &MemoryIndex{byOperator: make(map[string][]ReferenceRecord)}

	for _, r := range records {
		key := NormalizeKey(r.Operator)
		idx.byOperator[key] = append(idx.byOperator[key], r)
	}

	for key := range idx.byOperator {
		slices.SortFunc(idx.byOperator[key], func(a, b ReferenceRecord) int {
			return strings.Compare(a.ID, b.ID)
		})
	}

	return idx
}

// FindCandidates returns the records for the operator whose work date falls
// within toleranceDays of the claimed date and whose site matches the claimed
// site. A nil work date matches nothing: without a date anchor there is no
// way to judge slippage. Site matching is trimmed, case-insensitive, and
// substring-tolerant in either direction.
func (idx *MemoryIndex) FindCandidates(
	operator string,
	workDate *time.Time,
	site string,
	toleranceDays int,
) ([]ReferenceRecord, error) {
	if workDate == nil {
		return nil, nil
	}

	var out []ReferenceRecord
	for _, r := range idx.byOperator[NormalizeKey(operator)] {
		if dayDelta(r.WorkDate, *workDate) > toleranceDays {
			continue
		}
		if !sitesMatch(site, r.Site) {
			continue
		}
		out = append(out, r)
	}

	return out, nil
}

// Len returns the number of records in the index.
func (idx *MemoryIndex) Len() int {
	n := 0
	for _, recs := range idx.byOperator {
		n += len(recs)
	}
	return n
}

// sitesMatch reports whether one normalized site contains the other, which
// tolerates minor abbreviation differences without full fuzzy matching. An
// empty site on either side never matches: a blank substring is contained in
// everything, which would pair a siteless claim with arbitrary records.
func sitesMatch(claimed, reference string) bool {
	a := NormalizeKey(claimed)
	b := NormalizeKey(reference)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// dayDelta returns the absolute whole-day distance between two dates,
// ignoring time-of-day and zone.
func dayDelta(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	d := int(au.Sub(bu).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

// sameDay reports whether two dates fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	return dayDelta(a, b) == 0
}
