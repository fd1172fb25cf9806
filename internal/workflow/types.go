package workflow

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KeyStorageKey = "storage_key"
	KeyTempDir    = "temp_dir"
	KeyExtraction = "extraction_state"
	KeyResult     = "extraction_result"
)

// RawLine is the per-line JSON shape the vision model is instructed to emit.
// Numeric fields default to zero and work_date to empty when the model emits
// null; coercion into validated values happens in the finalize node.
type RawLine struct {
	WorkDate    string  `json:"work_date"`
	Site        string  `json:"site_location"`
	Role        string  `json:"role"`
	HoursOnSite float64 `json:"hours_on_site"`
	HoursTravel float64 `json:"hours_travel"`
	HoursYard   float64 `json:"hours_yard"`
	RatePerHour float64 `json:"rate_per_hour"`
	LineTotal   float64 `json:"line_total"`
}

// ExtractionPage holds per-page data accumulated during extraction.
// ImagePath references the rendered page image in a temp directory.
// Failed marks the page for a rescan pass with adjusted render settings.
type ExtractionPage struct {
	PageNumber    int       `json:"page_number"`
	ImagePath     string    `json:"image_path"`
	Lines         []RawLine `json:"lines"`
	TotalAmount   *float64  `json:"total_amount,omitempty"`
	Failed        bool      `json:"failed"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// ExtractionState holds the running per-page results accumulated across nodes.
type ExtractionState struct {
	Pages []ExtractionPage `json:"pages"`
}

// NeedsRescan reports whether any page failed its first extraction pass.
func (s *ExtractionState) NeedsRescan() bool {
	return slices.ContainsFunc(s.Pages, func(p ExtractionPage) bool {
		return p.Failed
	})
}

// RescanPages returns the indices of pages flagged for a rescan pass.
func (s *ExtractionState) RescanPages() []int {
	var indices []int
	for i, p := range s.Pages {
		if p.Failed {
			indices = append(indices, i)
		}
	}
	return indices
}

// ParsedLine is a fully coerced claim line ready for persistence. WorkDate is
// nil when the document carried no parseable date for the line.
type ParsedLine struct {
	Page        int             `json:"page"`
	WorkDate    *time.Time      `json:"work_date"`
	Site        string          `json:"site_location"`
	Role        string          `json:"role"`
	HoursOnSite float64         `json:"hours_on_site"`
	HoursTravel float64         `json:"hours_travel"`
	HoursYard   float64         `json:"hours_yard"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Result is the final output from an extraction workflow execution.
// TotalAmount is nil when no stated invoice total was found in the document.
// PagesFailed lists pages that produced no usable lines even after rescan.
type Result struct {
	StorageKey  string           `json:"storage_key"`
	PageCount   int              `json:"page_count"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Lines       []ParsedLine     `json:"lines"`
	PagesFailed []int            `json:"pages_failed,omitempty"`
	CompletedAt time.Time        `json:"completed_at"`
}
