package engine

import "slices"

// Classify maps a score and discrepancy flags to a terminal match status.
// A hard flag rejects the line outright. A line with no reference record is
// pinned at NEEDS_REVIEW regardless of its score: there is nothing to verify
// the claim against, so neither MATCHED nor REJECTED is supportable. Below
// those, a score under the review threshold rejects and the thresholds decide
// the rest. Statuses are always recomputed from scratch, never transitioned
// from a prior run.
func Classify(score int, flags []Flag, t Thresholds) MatchStatus {
	for _, f := range flags {
		if f.Hard() {
			return StatusRejected
		}
	}

	if slices.Contains(flags, FlagNoRecord) {
		return StatusNeedsReview
	}

	if score < t.Review {
		return StatusRejected
	}

	switch {
	case score >= t.Matched:
		return StatusMatched
	case score >= t.Partial:
		return StatusPartial
	default:
		return StatusNeedsReview
	}
}
