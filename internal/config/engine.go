package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/plantline/reckon/internal/engine"
)

const (
	EnvEngineDateToleranceDays = "RECKON_ENGINE_DATE_TOLERANCE_DAYS"
	EnvEngineHoursTolerance    = "RECKON_ENGINE_HOURS_TOLERANCE"
	EnvEngineRateToleranceAbs  = "RECKON_ENGINE_RATE_TOLERANCE_ABS"
	EnvEngineRateToleranceRel  = "RECKON_ENGINE_RATE_TOLERANCE_REL"
	EnvEngineMaxWorkers        = "RECKON_ENGINE_MAX_WORKERS"
	EnvEngineThresholdMatched  = "RECKON_ENGINE_THRESHOLD_MATCHED"
	EnvEngineThresholdPartial  = "RECKON_ENGINE_THRESHOLD_PARTIAL"
	EnvEngineThresholdReview   = "RECKON_ENGINE_THRESHOLD_REVIEW"
)

// EngineConfig holds the reconciliation engine's tolerances and score
// thresholds. Zero values fall back to the engine's reference defaults.
type EngineConfig struct {
	DateToleranceDays int     `toml:"date_tolerance_days"`
	HoursTolerance    float64 `toml:"hours_tolerance"`
	RateToleranceAbs  float64 `toml:"rate_tolerance_abs"`
	RateToleranceRel  float64 `toml:"rate_tolerance_rel"`
	MaxWorkers        int     `toml:"max_workers"`
	ThresholdMatched  int     `toml:"threshold_matched"`
	ThresholdPartial  int     `toml:"threshold_partial"`
	ThresholdReview   int     `toml:"threshold_review"`
}

// ToEngine converts the section into the engine's normalized Config.
func (c *EngineConfig) ToEngine() engine.Config {
	cfg := engine.Config{
		DateToleranceDays: c.DateToleranceDays,
		HoursTolerance:    c.HoursTolerance,
		RateToleranceAbs:  c.RateToleranceAbs,
		RateToleranceRel:  c.RateToleranceRel,
		MaxWorkers:        c.MaxWorkers,
		Thresholds: engine.Thresholds{
			Matched: c.ThresholdMatched,
			Partial: c.ThresholdPartial,
			Review:  c.ThresholdReview,
		},
	}
	cfg.Normalize()
	return cfg
}

// Finalize applies environment variable overrides and validation. Defaults
// are left to engine.Config's own normalization.
func (c *EngineConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.DateToleranceDays != 0 {
		c.DateToleranceDays = overlay.DateToleranceDays
	}
	if overlay.HoursTolerance != 0 {
		c.HoursTolerance = overlay.HoursTolerance
	}
	if overlay.RateToleranceAbs != 0 {
		c.RateToleranceAbs = overlay.RateToleranceAbs
	}
	if overlay.RateToleranceRel != 0 {
		c.RateToleranceRel = overlay.RateToleranceRel
	}
	if overlay.MaxWorkers != 0 {
		c.MaxWorkers = overlay.MaxWorkers
	}
	if overlay.ThresholdMatched != 0 {
		c.ThresholdMatched = overlay.ThresholdMatched
	}
	if overlay.ThresholdPartial != 0 {
		c.ThresholdPartial = overlay.ThresholdPartial
	}
	if overlay.ThresholdReview != 0 {
		c.ThresholdReview = overlay.ThresholdReview
	}
}

func (c *EngineConfig) loadEnv() {
	setInt := func(envVar string, dst *int) {
		if v := os.Getenv(envVar); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setFloat := func(envVar string, dst *float64) {
		if v := os.Getenv(envVar); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	setInt(EnvEngineDateToleranceDays, &c.DateToleranceDays)
	setFloat(EnvEngineHoursTolerance, &c.HoursTolerance)
	setFloat(EnvEngineRateToleranceAbs, &c.RateToleranceAbs)
	setFloat(EnvEngineRateToleranceRel, &c.RateToleranceRel)
	setInt(EnvEngineMaxWorkers, &c.MaxWorkers)
	setInt(EnvEngineThresholdMatched, &c.ThresholdMatched)
	setInt(EnvEngineThresholdPartial, &c.ThresholdPartial)
	setInt(EnvEngineThresholdReview, &c.ThresholdReview)
}

func (c *EngineConfig) validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("invalid date_tolerance_days: %d", c.DateToleranceDays)
	}
	if c.HoursTolerance < 0 || c.RateToleranceAbs < 0 || c.RateToleranceRel < 0 {
		return fmt.Errorf("tolerances must be non-negative")
	}

	m, p, rv := c.ThresholdMatched, c.ThresholdPartial, c.ThresholdReview
	if m != 0 && p != 0 && m <= p {
		return fmt.Errorf("threshold_matched must exceed threshold_partial")
	}
	if p != 0 && rv != 0 && p <= rv {
		return fmt.Errorf("threshold_partial must exceed threshold_review")
	}

	return nil
}
