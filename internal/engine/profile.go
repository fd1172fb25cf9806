package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateProfile is an operator's contracted hourly rates and HGV eligibility.
// The engine treats profiles as read-only for the duration of a run.
type RateProfile struct {
	Operator    string
	BaseRate    decimal.Decimal
	TravelRate  decimal.Decimal
	YardRate    decimal.Decimal
	HGVEligible bool
	Notes       string
}

// Resolver looks up an operator's rate profile by normalized name.
// Implementations return ErrUnknownOperator when no profile exists and
// ErrLookupUnavailable (possibly wrapped) when the profile store cannot be
// reached.
type Resolver interface {
	Resolve(operator string) (RateProfile, error)
}

// ProfileSet is an immutable in-memory Resolver built from a point-in-time
// snapshot of the rate profile store.
type ProfileSet struct {
	profiles map[string]RateProfile
}

// NewProfileSet builds a ProfileSet keyed by normalized operator name.
// Later duplicates overwrite earlier ones.
func NewProfileSet(profiles []RateProfile) *ProfileSet {
	set := &ProfileSet{profiles: make(map[string]RateProfile, len(profiles))}
	for _, p := range profiles {
		set.profiles[NormalizeKey(p.Operator)] = p
	}
	return set
}

// Resolve returns the profile for the given operator name, matched exactly on
// the trimmed, case-folded key.
func (s *ProfileSet) Resolve(operator string) (RateProfile, error) {
	p, ok := s.profiles[NormalizeKey(operator)]
	if !ok {
		return RateProfile{}, ErrUnknownOperator
	}
	return p, nil
}

// Len returns the number of profiles in the set.
func (s *ProfileSet) Len() int {
	return len(s.profiles)
}

// NormalizeKey trims and case-folds an operator or site name for matching.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
