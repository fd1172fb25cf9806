package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Engine reconciles invoices against a rate profile resolver and a reference
// record index. Both collaborators must present an immutable snapshot for the
// duration of one Reconcile call; given that, Reconcile is a pure function of
// its inputs.
type Engine struct {
	cfg      Config
	profiles Resolver
	records  Index
	logger   *slog.Logger
}

// New creates an Engine. Zero-valued config fields are filled from the
// reference defaults.
func New(cfg Config, profiles Resolver, records Index, logger *slog.Logger) *Engine {
	cfg.Normalize()
	return &Engine{
		cfg:      cfg,
		profiles: profiles,
		records:  records,
		logger:   logger.With("system", "engine"),
	}
}

// Config returns the engine's normalized configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Reconcile scores every line of the invoice independently and rolls the
// claimed line totals into an invoice-level consistency check. Lines are
// scored in parallel with a bounded fan-out and joined before the total
// check. Failures from the collaborators degrade the affected lines to
// NEEDS_REVIEW; nothing raised per line aborts the run. The input invoice is
// not mutated; the annotated copy is returned.
func (e *Engine) Reconcile(ctx context.Context, inv Invoice) (Invoice, error) {
	if len(inv.Lines) == 0 {
		return inv, ErrNoLines
	}

	out := inv
	out.Lines = slices.Clone(inv.Lines)

	// One profile resolution per invoice: every line belongs to the same
	// subcontractor, so a missing profile degrades them all identically.
	profile, profileErr := e.profiles.Resolve(inv.Subcontractor)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount(len(out.Lines)))

	for i := range out.Lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out.Lines[i].Match = e.scoreOne(out.Lines[i], inv.Subcontractor, profile, profileErr)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return inv, fmt.Errorf("reconcile %s: %w", inv.Number, err)
	}

	sum := decimal.Zero
	for _, line := range out.Lines {
		sum = sum.Add(line.LineTotal)
	}

	out.LinesTotal = sum
	out.TotalMatched = sum.Sub(inv.TotalAmount).Abs().
		LessThanOrEqual(decimal.NewFromFloat(e.cfg.RateToleranceAbs))

	e.logger.Info("invoice reconciled",
		"invoice", inv.Number,
		"subcontractor", inv.Subcontractor,
		"lines", len(out.Lines),
		"total_matched", out.TotalMatched,
	)

	return out, nil
}

// scoreOne runs the full per-line pipeline: shape validation, candidate
// lookup and selection, scoring, and status classification. Every failure
// path produces a terminal result rather than an error.
func (e *Engine) scoreOne(line Line, operator string, profile RateProfile, profileErr error) MatchResult {
	if reason := ValidateLine(line); reason != "" {
		return MatchResult{
			Status: StatusRejected,
			Score:  0,
			Flags:  []Flag{FlagMalformedLine},
			Notes:  "malformed line: " + reason,
		}
	}

	if profileErr != nil {
		if errors.Is(profileErr, ErrUnknownOperator) {
			return MatchResult{
				Status: StatusNeedsReview,
				Score:  0,
				Flags:  []Flag{FlagUnknownOperator},
				Notes:  fmt.Sprintf("no rate profile for operator %q", operator),
			}
		}
		return MatchResult{
			Status: StatusNeedsReview,
			Score:  0,
			Flags:  []Flag{FlagLookupFailed},
			Notes:  fmt.Sprintf("rate profile lookup failed: %v", profileErr),
		}
	}

	candidates, err := e.records.FindCandidates(
		operator, line.WorkDate, line.Site, e.cfg.DateToleranceDays,
	)
	if err != nil {
		return MatchResult{
			Status: StatusNeedsReview,
			Score:  0,
			Flags:  []Flag{FlagLookupFailed},
			Notes:  fmt.Sprintf("reference record lookup failed: %v", err),
		}
	}

	record := SelectCandidate(line, candidates)

	result := ScoreLine(line, profile, record, e.cfg)
	result.Status = Classify(result.Score, result.Flags, e.cfg.Thresholds)
	return result
}

func (e *Engine) workerCount(lines int) int {
	limit := e.cfg.MaxWorkers
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return max(min(limit, lines), 1)
}
