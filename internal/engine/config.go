package engine

// Thresholds are the score cut-offs the classifier applies, inclusive lower
// bounds: score >= Matched is MATCHED, >= Partial is PARTIAL_MATCH,
// >= Review is NEEDS_REVIEW, and anything below Review is REJECTED.
type Thresholds struct {
	Matched int
	Partial int
	Review  int
}

// Config carries the engine's tolerances and penalty thresholds. All values
// are tunable; zero values are filled from the reference defaults by
// Normalize so a partially populated Config is always safe to use.
type Config struct {
	// DateToleranceDays widens the reference record lookup window to absorb
	// date-entry slippage between the invoice and internal records.
	DateToleranceDays int

	// HoursTolerance is the allowed absolute gap per hour category before a
	// discrepancy is penalized.
	HoursTolerance float64

	// RateToleranceAbs and RateToleranceRel bound the allowed deviation of
	// the claimed rate from the blended profile rate; the larger of the two
	// applies.
	RateToleranceAbs float64
	RateToleranceRel float64

	Thresholds Thresholds

	// MaxWorkers caps the per-invoice line fan-out. Zero means one worker
	// per logical CPU.
	MaxWorkers int
}

// DefaultConfig returns the reference tolerances and thresholds.
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 1,
		HoursTolerance:    0.25,
		RateToleranceAbs:  0.01,
		RateToleranceRel:  0.01,
		Thresholds: Thresholds{
			Matched: 90,
			Partial: 60,
			Review:  30,
		},
	}
}

// Normalize fills zero-valued fields from the reference defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.DateToleranceDays <= 0 {
		c.DateToleranceDays = def.DateToleranceDays
	}
	if c.HoursTolerance <= 0 {
		c.HoursTolerance = def.HoursTolerance
	}
	if c.RateToleranceAbs <= 0 {
		c.RateToleranceAbs = def.RateToleranceAbs
	}
	if c.RateToleranceRel <= 0 {
		c.RateToleranceRel = def.RateToleranceRel
	}
	if c.Thresholds.Matched <= 0 {
		c.Thresholds.Matched = def.Thresholds.Matched
	}
	if c.Thresholds.Partial <= 0 {
		c.Thresholds.Partial = def.Thresholds.Partial
	}
	if c.Thresholds.Review <= 0 {
		c.Thresholds.Review = def.Thresholds.Review
	}
}
