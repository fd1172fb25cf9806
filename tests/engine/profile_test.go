package engine_test

import (
	"errors"
	"testing"

	"github.com/plantline/reckon/internal/engine"
)

func TestProfileSetResolve(t *testing.T) {
	set := engine.NewProfileSet([]engine.RateProfile{
		{Operator: "Dan Mason", BaseRate: dec("15.00"), HGVEligible: true},
		{Operator: "Pete Wells", BaseRate: dec("17.50")},
	})

	tests := []struct {
		name     string
		operator string
		wantRate string
	}{
		{"exact name", "Dan Mason", "15.00"},
		{"case folded", "dan mason", "15.00"},
		{"whitespace trimmed", "  Pete Wells ", "17.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := set.Resolve(tt.operator)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.operator, err)
			}
			if !p.BaseRate.Equal(dec(tt.wantRate)) {
				t.Errorf("base rate = %s, want %s", p.BaseRate, tt.wantRate)
			}
		})
	}
}

func TestProfileSetResolveUnknown(t *testing.T) {
	set := engine.NewProfileSet([]engine.RateProfile{
		{Operator: "Dan Mason", BaseRate: dec("15.00")},
	})

	_, err := set.Resolve("Nobody")
	if !errors.Is(err, engine.ErrUnknownOperator) {
		t.Errorf("Resolve() error = %v, want ErrUnknownOperator", err)
	}
}

func TestProfileSetDuplicateOverwrites(t *testing.T) {
	set := engine.NewProfileSet([]engine.RateProfile{
		{Operator: "Dan Mason", BaseRate: dec("15.00")},
		{Operator: "DAN MASON", BaseRate: dec("16.00")},
	})

	if got := set.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	p, err := set.Resolve("Dan Mason")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !p.BaseRate.Equal(dec("16.00")) {
		t.Errorf("base rate = %s, want the later profile to win", p.BaseRate)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dan Mason", "dan mason"},
		{"  Thornbury Depot  ", "thornbury depot"},
		{"HGV DRIVER", "hgv driver"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := engine.NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigNormalize(t *testing.T) {
	t.Run("zero config takes defaults", func(t *testing.T) {
		var cfg engine.Config
		cfg.Normalize()

		def := engine.DefaultConfig()
		if cfg.DateToleranceDays != def.DateToleranceDays {
			t.Errorf("date tolerance = %d, want %d", cfg.DateToleranceDays, def.DateToleranceDays)
		}
		if cfg.HoursTolerance != def.HoursTolerance {
			t.Errorf("hours tolerance = %v, want %v", cfg.HoursTolerance, def.HoursTolerance)
		}
		if cfg.Thresholds != def.Thresholds {
			t.Errorf("thresholds = %+v, want %+v", cfg.Thresholds, def.Thresholds)
		}
	})

	t.Run("populated fields preserved", func(t *testing.T) {
		cfg := engine.Config{
			DateToleranceDays: 3,
			HoursTolerance:    0.5,
			Thresholds:        engine.Thresholds{Matched: 95, Partial: 70, Review: 40},
		}
		cfg.Normalize()

		if cfg.DateToleranceDays != 3 {
			t.Errorf("date tolerance = %d, want 3", cfg.DateToleranceDays)
		}
		if cfg.HoursTolerance != 0.5 {
			t.Errorf("hours tolerance = %v, want 0.5", cfg.HoursTolerance)
		}
		if cfg.Thresholds.Matched != 95 {
			t.Errorf("matched threshold = %d, want 95", cfg.Thresholds.Matched)
		}
		if cfg.RateToleranceAbs != engine.DefaultConfig().RateToleranceAbs {
			t.Errorf("rate tolerance = %v, want default", cfg.RateToleranceAbs)
		}
	})
}
