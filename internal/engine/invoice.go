// Package engine implements the invoice line reconciliation engine for Reckon.
// It validates a subcontractor's claimed invoice lines against independently
// recorded job-sheet and yard data and the operator's contracted rate profile,
// producing a deterministic per-line score, discrepancy notes, and a match
// status. The engine performs no I/O of its own: rate profiles and reference
// records are supplied as immutable snapshots through the Resolver and Index
// collaborators, so two runs over identical inputs yield identical results.
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus is the terminal classification assigned to a reconciled line.
type MatchStatus string

const (
	StatusMatched     MatchStatus = "MATCHED"
	StatusPartial     MatchStatus = "PARTIAL_MATCH"
	StatusNeedsReview MatchStatus = "NEEDS_REVIEW"
	StatusRejected    MatchStatus = "REJECTED"
)

// Flag marks a discrepancy class detected while scoring a line.
type Flag string

const (
	FlagNoRecord        Flag = "no_reference_record"
	FlagRoleMismatch    Flag = "role_mismatch"
	FlagHoursMismatch   Flag = "hours_mismatch"
	FlagRateMismatch    Flag = "rate_mismatch"
	FlagHGVNotEligible  Flag = "hgv_not_eligible"
	FlagArithmetic      Flag = "line_total_arithmetic"
	FlagMalformedLine   Flag = "malformed_line"
	FlagUnknownOperator Flag = "unknown_operator"
	FlagLookupFailed    Flag = "lookup_failed"
)

// Hard reports whether the flag forces rejection regardless of score.
func (f Flag) Hard() bool {
	return f == FlagHGVNotEligible
}

// Line is a single claimed invoice line. The claimed fields come from the
// document parser; Match is populated by Reconcile.
type Line struct {
	WorkDate    *time.Time      `json:"work_date"`
	Site        string          `json:"site_location"`
	Role        string          `json:"role"`
	HoursOnSite float64         `json:"hours_on_site"`
	HoursTravel float64         `json:"hours_travel"`
	HoursYard   float64         `json:"hours_yard"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
	LineTotal   decimal.Decimal `json:"line_total"`

	Match MatchResult `json:"match"`
}

// TotalHours returns the sum of the line's claimed hour categories.
func (l Line) TotalHours() float64 {
	return l.HoursOnSite + l.HoursTravel + l.HoursYard
}

// MatchResult is the per-line outcome of a reconciliation run. It is computed
// fresh on every run and is never carried over from a prior one.
type MatchResult struct {
	Status       MatchStatus `json:"status"`
	Score        int         `json:"score"`
	Flags        []Flag      `json:"flags,omitempty"`
	Notes        string      `json:"notes"`
	JobsheetID   *string     `json:"jobsheet_id,omitempty"`
	YardRecordID *string     `json:"yard_record_id,omitempty"`
}

// HasHardFlag reports whether any compliance flag is present.
func (r MatchResult) HasHardFlag() bool {
	for _, f := range r.Flags {
		if f.Hard() {
			return true
		}
	}
	return false
}

// Invoice is the unit of reconciliation: header fields plus the ordered
// claimed lines. Reconcile annotates Lines and the total reconciliation
// fields but never alters invoice identity.
type Invoice struct {
	Number        string          `json:"invoice_number"`
	Date          time.Time       `json:"invoice_date"`
	Subcontractor string          `json:"subcontractor_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Lines         []Line          `json:"lines"`

	// Populated by Reconcile: sum of claimed line totals and whether it
	// agrees with TotalAmount within the currency tolerance. A mismatch is
	// advisory and never alters any line's status.
	LinesTotal   decimal.Decimal `json:"lines_total"`
	TotalMatched bool            `json:"total_matched"`
}
