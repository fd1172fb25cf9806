// Package invoices implements the invoice domain for Reckon. It covers the
// full audit path for a subcontractor invoice: PDF upload and blob storage,
// structured line extraction through the vision workflow, and reconciliation
// of the claimed lines against rate profiles and reference records.
package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantline/reckon/internal/engine"
)

// Invoice lifecycle statuses.
const (
	StatusExtracted  = "extracted"
	StatusReconciled = "reconciled"
)

// Invoice represents an uploaded subcontractor invoice with its claimed
// lines and the rolled-up reconciliation outcome. LinesTotal and
// TotalMatched are zero-valued until the first reconciliation run.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	Subcontractor string          `json:"subcontractor_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Filename      string          `json:"filename"`
	ContentType   string          `json:"content_type"`
	SizeBytes     int64           `json:"size_bytes"`
	PageCount     *int            `json:"page_count"`
	StorageKey    string          `json:"storage_key"`
	Status        string          `json:"status"`
	LinesTotal    decimal.Decimal `json:"lines_total"`
	TotalMatched  bool            `json:"total_matched"`
	ReconciledAt  *time.Time      `json:"reconciled_at,omitempty"`
	UploadedAt    time.Time       `json:"uploaded_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Lines []Line `json:"lines,omitempty"`
}

// Line is a stored claim line together with its most recent match outcome.
// Match fields are recomputed wholesale on every reconciliation run.
type Line struct {
	ID         uuid.UUID `json:"id"`
	InvoiceID  uuid.UUID `json:"invoice_id"`
	LineNumber int       `json:"line_number"`
	Page       int       `json:"page"`

	WorkDate    *time.Time      `json:"work_date"`
	Site        string          `json:"site_location"`
	Role        string          `json:"role"`
	HoursOnSite float64         `json:"hours_on_site"`
	HoursTravel float64         `json:"hours_travel"`
	HoursYard   float64         `json:"hours_yard"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
	LineTotal   decimal.Decimal `json:"line_total"`

	MatchStatus  string   `json:"match_status"`
	MatchScore   int      `json:"match_score"`
	MatchFlags   []string `json:"match_flags,omitempty"`
	MatchNotes   string   `json:"match_notes"`
	JobsheetID   *string  `json:"jobsheet_id,omitempty"`
	YardRecordID *string  `json:"yard_record_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadCommand carries the data needed to upload and register a new invoice.
// Data holds the raw PDF bytes; PageCount is extracted by the caller via
// pdfcpu and nil when extraction was not possible.
type UploadCommand struct {
	Data          []byte
	Filename      string
	ContentType   string
	Number        string
	InvoiceDate   time.Time
	Subcontractor string
	PageCount     *int
}

func (c UploadCommand) validate() error {
	if len(c.Data) == 0 || c.ContentType != "application/pdf" {
		return ErrInvalidFile
	}
	if c.Number == "" || c.Subcontractor == "" || c.InvoiceDate.IsZero() {
		return ErrInvalidFile
	}
	return nil
}

func toEngineLine(l Line) engine.Line {
	return engine.Line{
		WorkDate:    l.WorkDate,
		Site:        l.Site,
		Role:        l.Role,
		HoursOnSite: l.HoursOnSite,
		HoursTravel: l.HoursTravel,
		HoursYard:   l.HoursYard,
		RatePerHour: l.RatePerHour,
		LineTotal:   l.LineTotal,
	}
}

func toEngineInvoice(inv *Invoice) engine.Invoice {
	lines := make([]engine.Line, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, toEngineLine(l))
	}

	return engine.Invoice{
		Number:        inv.Number,
		Date:          inv.InvoiceDate,
		Subcontractor: inv.Subcontractor,
		TotalAmount:   inv.TotalAmount,
		Lines:         lines,
	}
}

func applyMatch(l *Line, m engine.MatchResult) {
	flags := make([]string, 0, len(m.Flags))
	for _, f := range m.Flags {
		flags = append(flags, string(f))
	}

	l.MatchStatus = string(m.Status)
	l.MatchScore = m.Score
	l.MatchFlags = flags
	l.MatchNotes = m.Notes
	l.JobsheetID = m.JobsheetID
	l.YardRecordID = m.YardRecordID
}
