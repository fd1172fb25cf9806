package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Date layouts accepted from the vision model, tried in order. The prompt
// asks for ISO dates but invoices frequently carry UK day-first forms.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
}

// FinalizeNode returns a state node that merges per-page results into the
// workflow Result: coerced claim lines in page order, the stated invoice
// total when one was found, and the pages that produced nothing usable.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		storageKey, ok := stateString(s, KeyStorageKey)
		if !ok {
			return s, fmt.Errorf("finalize: %w: missing %s in state", ErrExtractFailed, KeyStorageKey)
		}

		result, err := buildResult(storageKey, es)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "finalize node complete",
			"storage_key", storageKey,
			"lines", len(result.Lines),
			"pages_failed", len(result.PagesFailed),
		)

		s = s.Set(KeyResult, result)
		return s, nil
	})
}

func buildResult(storageKey string, es *ExtractionState) (Result, error) {
	result := Result{
		StorageKey: storageKey,
		PageCount:  len(es.Pages),
	}

	failed := 0
	for _, page := range es.Pages {
		if page.Failed {
			failed++
			result.PagesFailed = append(result.PagesFailed, page.PageNumber)
			continue
		}

		for _, raw := range page.Lines {
			result.Lines = append(result.Lines, coerceLine(page.PageNumber, raw))
		}

		if page.TotalAmount != nil {
			total := decimal.NewFromFloat(*page.TotalAmount)
			result.TotalAmount = &total
		}
	}

	if failed == len(es.Pages) {
		return result, fmt.Errorf("%w: no page produced a readable result", ErrExtractFailed)
	}

	return result, nil
}

// coerceLine normalizes one raw model line: date parsing falls back to nil,
// text fields are trimmed, and negative numbers clamp to zero.
func coerceLine(pageNumber int, raw RawLine) ParsedLine {
	return ParsedLine{
		Page:        pageNumber,
		WorkDate:    parseWorkDate(raw.WorkDate),
		Site:        strings.TrimSpace(raw.Site),
		Role:        strings.TrimSpace(raw.Role),
		HoursOnSite: clampNonNegative(raw.HoursOnSite),
		HoursTravel: clampNonNegative(raw.HoursTravel),
		HoursYard:   clampNonNegative(raw.HoursYard),
		RatePerHour: decimal.NewFromFloat(clampNonNegative(raw.RatePerHour)),
		LineTotal:   decimal.NewFromFloat(clampNonNegative(raw.LineTotal)),
	}
}

func parseWorkDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}

	return nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func stateString(s state.State, key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}

	str, ok := val.(string)
	return str, ok
}
