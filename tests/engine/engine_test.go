package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plantline/reckon/internal/engine"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(string) (engine.RateProfile, error) {
	return engine.RateProfile{}, f.err
}

type failingIndex struct{ err error }

func (f failingIndex) FindCandidates(string, *time.Time, string, int) ([]engine.ReferenceRecord, error) {
	return nil, f.err
}

func testProfiles() *engine.ProfileSet {
	return engine.NewProfileSet([]engine.RateProfile{flatProfile("15.00")})
}

func testIndex() *engine.MemoryIndex {
	return engine.NewMemoryIndex([]engine.ReferenceRecord{matchingRecord()})
}

func testInvoice(lines ...engine.Line) engine.Invoice {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	return engine.Invoice{
		Number:        "INV-1042",
		Date:          day(2025, time.March, 14),
		Subcontractor: "Dan Mason",
		TotalAmount:   sum,
		Lines:         lines,
	}
}

func TestReconcileNoLines(t *testing.T) {
	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	_, err := eng.Reconcile(context.Background(), testInvoice())
	if !errors.Is(err, engine.ErrNoLines) {
		t.Errorf("Reconcile() error = %v, want ErrNoLines", err)
	}
}

func TestReconcileClean(t *testing.T) {
	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), testInvoice(cleanLine()))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	line := out.Lines[0]
	if line.Match.Status != engine.StatusMatched {
		t.Errorf("status = %s, want %s (notes: %s)", line.Match.Status, engine.StatusMatched, line.Match.Notes)
	}
	if line.Match.Score != 100 {
		t.Errorf("score = %d, want 100", line.Match.Score)
	}
	if !out.LinesTotal.Equal(dec("142.50")) {
		t.Errorf("lines total = %s, want 142.50", out.LinesTotal)
	}
	if !out.TotalMatched {
		t.Error("total should reconcile")
	}
}

func TestReconcileDeterministic(t *testing.T) {
	records := []engine.ReferenceRecord{matchingRecord()}
	for i := 2; i <= 6; i++ {
		r := matchingRecord()
		r.ID = fmt.Sprintf("js-%03d", i)
		r.WorkDate = day(2025, time.March, 9+i)
		records = append(records, r)
	}

	lines := make([]engine.Line, 0, 8)
	for i := range 8 {
		l := cleanLine()
		d := day(2025, time.March, 10+i%4)
		l.WorkDate = &d
		if i%3 == 0 {
			l.RatePerHour = dec("16.00")
			l.LineTotal = dec("152.00")
		}
		lines = append(lines, l)
	}

	run := func(workers int) engine.Invoice {
		cfg := engine.DefaultConfig()
		cfg.MaxWorkers = workers
		eng := engine.New(cfg, testProfiles(), engine.NewMemoryIndex(records), discard())

		out, err := eng.Reconcile(context.Background(), testInvoice(lines...))
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		return out
	}

	first := run(1)
	second := run(4)
	third := run(4)

	if !reflect.DeepEqual(first.Lines, second.Lines) {
		t.Error("results differ between worker counts")
	}
	if !reflect.DeepEqual(second.Lines, third.Lines) {
		t.Error("results differ between identical runs")
	}
}

func TestReconcileUnknownOperator(t *testing.T) {
	empty := engine.NewProfileSet(nil)
	eng := engine.New(engine.DefaultConfig(), empty, testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), testInvoice(cleanLine(), cleanLine()))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	for i, line := range out.Lines {
		if line.Match.Status != engine.StatusNeedsReview {
			t.Errorf("line %d status = %s, want %s", i, line.Match.Status, engine.StatusNeedsReview)
		}
		if !hasFlag(line.Match.Flags, engine.FlagUnknownOperator) {
			t.Errorf("line %d flags = %v, want %s", i, line.Match.Flags, engine.FlagUnknownOperator)
		}
	}
}

func TestReconcileProfileLookupFailure(t *testing.T) {
	resolver := failingResolver{err: fmt.Errorf("%w: connection refused", engine.ErrLookupUnavailable)}
	eng := engine.New(engine.DefaultConfig(), resolver, testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), testInvoice(cleanLine()))
	if err != nil {
		t.Fatalf("Reconcile() error = %v, lookup failures must degrade lines rather than abort", err)
	}

	line := out.Lines[0]
	if line.Match.Status != engine.StatusNeedsReview {
		t.Errorf("status = %s, want %s", line.Match.Status, engine.StatusNeedsReview)
	}
	if !hasFlag(line.Match.Flags, engine.FlagLookupFailed) {
		t.Errorf("flags = %v, want %s", line.Match.Flags, engine.FlagLookupFailed)
	}
}

func TestReconcileRecordLookupFailure(t *testing.T) {
	index := failingIndex{err: fmt.Errorf("%w: timeout", engine.ErrLookupUnavailable)}
	eng := engine.New(engine.DefaultConfig(), testProfiles(), index, discard())

	out, err := eng.Reconcile(context.Background(), testInvoice(cleanLine()))
	if err != nil {
		t.Fatalf("Reconcile() error = %v, lookup failures must degrade lines rather than abort", err)
	}

	line := out.Lines[0]
	if line.Match.Status != engine.StatusNeedsReview {
		t.Errorf("status = %s, want %s", line.Match.Status, engine.StatusNeedsReview)
	}
	if !hasFlag(line.Match.Flags, engine.FlagLookupFailed) {
		t.Errorf("flags = %v, want %s", line.Match.Flags, engine.FlagLookupFailed)
	}
}

func TestReconcileLinesIndependent(t *testing.T) {
	bad := cleanLine()
	bad.HoursOnSite = -4

	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), testInvoice(cleanLine(), bad, cleanLine()))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if out.Lines[1].Match.Status != engine.StatusRejected {
		t.Errorf("malformed line status = %s, want %s", out.Lines[1].Match.Status, engine.StatusRejected)
	}
	if !hasFlag(out.Lines[1].Match.Flags, engine.FlagMalformedLine) {
		t.Errorf("malformed line flags = %v, want %s", out.Lines[1].Match.Flags, engine.FlagMalformedLine)
	}

	for _, i := range []int{0, 2} {
		if out.Lines[i].Match.Status != engine.StatusMatched {
			t.Errorf("line %d status = %s, want %s", i, out.Lines[i].Match.Status, engine.StatusMatched)
		}
	}
}

func TestReconcileEmptySiteRejectedAsMalformed(t *testing.T) {
	bad := cleanLine()
	bad.Site = ""

	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), testInvoice(bad))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	match := out.Lines[0].Match
	if match.Status != engine.StatusRejected {
		t.Errorf("status = %s, want %s", match.Status, engine.StatusRejected)
	}
	if !hasFlag(match.Flags, engine.FlagMalformedLine) {
		t.Errorf("flags = %v, want %s", match.Flags, engine.FlagMalformedLine)
	}
	if match.JobsheetID != nil || match.YardRecordID != nil {
		t.Error("record ids should be nil for a malformed line")
	}
}

func TestReconcileTotalMismatchIsAdvisory(t *testing.T) {
	inv := testInvoice(cleanLine())
	inv.TotalAmount = inv.TotalAmount.Add(dec("5.00"))

	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), inv)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if out.TotalMatched {
		t.Error("total should not reconcile")
	}
	if out.Lines[0].Match.Status != engine.StatusMatched {
		t.Errorf("status = %s, a total mismatch must not touch line status", out.Lines[0].Match.Status)
	}
}

func TestReconcileTotalWithinTolerance(t *testing.T) {
	inv := testInvoice(cleanLine())
	inv.TotalAmount = inv.TotalAmount.Add(dec("0.01"))

	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	out, err := eng.Reconcile(context.Background(), inv)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !out.TotalMatched {
		t.Error("a one-penny gap should reconcile")
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	inv := testInvoice(cleanLine())

	eng := engine.New(engine.DefaultConfig(), testProfiles(), testIndex(), discard())

	if _, err := eng.Reconcile(context.Background(), inv); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if inv.Lines[0].Match.Status != "" {
		t.Errorf("input line was annotated: %s", inv.Lines[0].Match.Status)
	}
	if !inv.LinesTotal.IsZero() {
		t.Errorf("input lines total was set: %s", inv.LinesTotal)
	}
}
