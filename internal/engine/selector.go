package engine

import (
	"math"
	"slices"
	"strings"
)

// SelectCandidate picks the single best reference record for a line, or nil
// when the candidate list is empty. Ranking is applied in order: exact date
// match over window match, exact role match over mismatch, smallest absolute
// gap between candidate and claimed total hours, then lowest record id as the
// stable tie-break. The result depends only on the line and the candidates,
// never on input order.
func SelectCandidate(line Line, candidates []ReferenceRecord) *ReferenceRecord {
	if len(candidates) == 0 {
		return nil
	}

	ranked := slices.Clone(candidates)
	slices.SortFunc(ranked, func(a, b ReferenceRecord) int {
		if c := compareBool(exactDate(line, a), exactDate(line, b)); c != 0 {
			return c
		}
		if c := compareBool(rolesMatch(line.Role, a.Role), rolesMatch(line.Role, b.Role)); c != 0 {
			return c
		}

		claimed := line.TotalHours()
		gapA := math.Abs(a.TotalHours() - claimed)
		gapB := math.Abs(b.TotalHours() - claimed)
		if gapA != gapB {
			if gapA < gapB {
				return -1
			}
			return 1
		}

		return strings.Compare(a.ID, b.ID)
	})

	best := ranked[0]
	return &best
}

func exactDate(line Line, r ReferenceRecord) bool {
	return line.WorkDate != nil && sameDay(*line.WorkDate, r.WorkDate)
}

func rolesMatch(claimed, reference string) bool {
	return NormalizeKey(claimed) == NormalizeKey(reference)
}

// compareBool orders true before false.
func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return -1
	}
	return 1
}
