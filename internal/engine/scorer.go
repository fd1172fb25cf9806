package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const baselineScore = 100

// Itemized penalty weights. These are structural to the scoring model; the
// tolerances that decide whether a penalty applies live in Config.
const (
	penaltyNoRecord     = 60
	penaltyRoleMismatch = 15
	penaltyHoursBase    = 10
	penaltyHoursCap     = 25
	penaltyRateMismatch = 20
	penaltyHGV          = 40
	penaltyArithmetic   = 10
)

// scorecard accumulates penalties, flags, and note fragments in the fixed
// check order, so notes are reproducible even though penalties are additive
// and order-independent in effect.
type scorecard struct {
	penalty int
	flags   []Flag
	notes   []string
}

func (s *scorecard) add(points int, flag Flag, note string) {
	s.penalty += points
	s.flags = append(s.flags, flag)
	s.notes = append(s.notes, note)
}

func (s *scorecard) result() (int, []Flag, string) {
	score := baselineScore - s.penalty
	if score < 0 {
		score = 0
	}
	return score, s.flags, strings.Join(s.notes, "; ")
}

// ScoreLine compares a claimed line against the selected reference record and
// the operator's rate profile. It starts from a baseline of 100 and subtracts
// fixed, itemized penalties for each detected discrepancy; the score floors
// at zero. The record may be nil when no candidate was found, which is a
// scored outcome, not an error.
func ScoreLine(line Line, profile RateProfile, record *ReferenceRecord, cfg Config) MatchResult {
	var card scorecard

	if record == nil {
		card.add(penaltyNoRecord, FlagNoRecord, "no reference record found")
	} else {
		if !rolesMatch(line.Role, record.Role) {
			card.add(penaltyRoleMismatch, FlagRoleMismatch, fmt.Sprintf(
				"role mismatch: claimed %q, reference %q", line.Role, record.Role,
			))
		}
		checkHours(&card, line, *record, cfg)
	}

	checkRate(&card, line, profile, cfg)

	if hgvRole(line.Role) && !profile.HGVEligible {
		card.add(penaltyHGV, FlagHGVNotEligible,
			"HGV role claimed but operator is not HGV eligible")
	}

	checkArithmetic(&card, line, cfg)

	score, flags, notes := card.result()

	result := MatchResult{
		Score: score,
		Flags: flags,
		Notes: notes,
	}

	if record != nil {
		id := record.ID
		switch record.Kind {
		case KindJobsheet:
			result.JobsheetID = &id
		case KindYard:
			result.YardRecordID = &id
		}
	}

	return result
}

// checkHours penalizes each hour category whose claimed value strays beyond
// the tolerance from the reference. The base penalty scales with the
// proportional size of the gap relative to the reference hours, capped per
// category; a claim against zero reference hours takes the full cap.
func checkHours(card *scorecard, line Line, record ReferenceRecord, cfg Config) {
	categories := []struct {
		name      string
		claimed   float64
		reference float64
	}{
		{"on-site", line.HoursOnSite, record.HoursOnSite},
		{"travel", line.HoursTravel, record.HoursTravel},
		{"yard", line.HoursYard, record.HoursYard},
	}

	for _, c := range categories {
		gap := math.Abs(c.claimed - c.reference)
		if gap <= cfg.HoursTolerance {
			continue
		}

		points := penaltyHoursCap
		if c.reference > 0 {
			scaled := float64(penaltyHoursBase) * (1 + gap/c.reference)
			points = int(math.Round(math.Min(scaled, penaltyHoursCap)))
		}

		card.add(points, FlagHoursMismatch, fmt.Sprintf(
			"%s hours differ: claimed %.2f, reference %.2f",
			c.name, c.claimed, c.reference,
		))
	}
}

// checkRate verifies the claimed hourly rate against the blended rate the
// profile implies for the same hour mix: each category's profile rate is
// weighted by the claimed hours in that category. Deviation beyond the larger
// of the absolute and relative tolerances is penalized.
func checkRate(card *scorecard, line Line, profile RateProfile, cfg Config) {
	total := line.TotalHours()
	if total <= 0 {
		return
	}

	weighted := profile.BaseRate.Mul(decimal.NewFromFloat(line.HoursOnSite)).
		Add(profile.TravelRate.Mul(decimal.NewFromFloat(line.HoursTravel))).
		Add(profile.YardRate.Mul(decimal.NewFromFloat(line.HoursYard)))

	expected := weighted.Div(decimal.NewFromFloat(total))

	tolerance := decimal.NewFromFloat(cfg.RateToleranceAbs)
	if rel := expected.Mul(decimal.NewFromFloat(cfg.RateToleranceRel)).Abs(); rel.GreaterThan(tolerance) {
		tolerance = rel
	}

	deviation := line.RatePerHour.Sub(expected).Abs()
	if deviation.GreaterThan(tolerance) {
		card.add(penaltyRateMismatch, FlagRateMismatch, fmt.Sprintf(
			"rate mismatch: claimed %s, expected %s",
			line.RatePerHour.StringFixed(2), expected.StringFixed(2),
		))
	}
}

// checkArithmetic verifies the claimed line total equals hours times rate
// within the currency tolerance.
func checkArithmetic(card *scorecard, line Line, cfg Config) {
	computed := line.RatePerHour.Mul(decimal.NewFromFloat(line.TotalHours()))

	gap := computed.Sub(line.LineTotal).Abs()
	if gap.GreaterThan(decimal.NewFromFloat(cfg.RateToleranceAbs)) {
		card.add(penaltyArithmetic, FlagArithmetic, fmt.Sprintf(
			"line total arithmetic: expected %s, got %s",
			computed.StringFixed(2), line.LineTotal.StringFixed(2),
		))
	}
}

// hgvRole reports whether the claimed role indicates HGV driving.
func hgvRole(role string) bool {
	return strings.Contains(NormalizeKey(role), "hgv")
}

// ValidateLine reports why a line cannot be scored numerically, or an empty
// string for a well-formed line. Malformed lines are forced to REJECTED by
// the aggregator without entering the scorer.
func ValidateLine(line Line) string {
	var reasons []string

	if strings.TrimSpace(line.Site) == "" {
		reasons = append(reasons, "missing site")
	}
	if strings.TrimSpace(line.Role) == "" {
		reasons = append(reasons, "missing role")
	}
	if line.HoursOnSite < 0 || line.HoursTravel < 0 || line.HoursYard < 0 {
		reasons = append(reasons, "negative hours")
	}
	for _, h := range []float64{line.HoursOnSite, line.HoursTravel, line.HoursYard} {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			reasons = append(reasons, "non-finite hours")
			break
		}
	}
	if line.RatePerHour.IsNegative() {
		reasons = append(reasons, "negative rate")
	}

	return strings.Join(reasons, "; ")
}
