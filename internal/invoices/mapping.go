package invoices

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/plantline/reckon/pkg/query"
	"github.com/plantline/reckon/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "invoices", "i").
	Project("id", "ID").
	Project("invoice_number", "Number").
	Project("invoice_date", "InvoiceDate").
	Project("subcontractor_name", "Subcontractor").
	Project("total_amount", "TotalAmount").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("lines_total", "LinesTotal").
	Project("total_matched", "TotalMatched").
	Project("reconciled_at", "ReconciledAt").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

const lineColumns = `id, invoice_id, line_number, page, work_date,
	site_location, role, hours_on_site, hours_travel, hours_yard,
	rate_per_hour, line_total, match_status, match_score, match_flags,
	match_notes, jobsheet_id, yard_record_id, created_at, updated_at`

// Filters contains optional filtering criteria for invoice queries.
// Nil fields are ignored. From and To bound the invoice date.
type Filters struct {
	Number        *string    `json:"invoice_number,omitempty"`
	Subcontractor *string    `json:"subcontractor_name,omitempty"`
	Status        *string    `json:"status,omitempty"`
	TotalMatched  *bool      `json:"total_matched,omitempty"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Number", f.Number).
		WhereContains("Subcontractor", f.Subcontractor).
		WhereEquals("Status", f.Status).
		WhereEquals("TotalMatched", f.TotalMatched).
		WhereAtLeast("InvoiceDate", f.From).
		WhereAtMost("InvoiceDate", f.To)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Date bounds use the YYYY-MM-DD form; unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("number"); n != "" {
		f.Number = &n
	}

	if s := values.Get("subcontractor"); s != "" {
		f.Subcontractor = &s
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if tm := values.Get("total_matched"); tm != "" {
		if v, err := strconv.ParseBool(tm); err == nil {
			f.TotalMatched = &v
		}
	}

	if from := values.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			f.From = &t
		}
	}

	if to := values.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			f.To = &t
		}
	}

	return f
}

func scanInvoice(s repository.Scanner) (Invoice, error) {
	var i Invoice

	err := s.Scan(
		&i.ID,
		&i.Number,
		&i.InvoiceDate,
		&i.Subcontractor,
		&i.TotalAmount,
		&i.Filename,
		&i.ContentType,
		&i.SizeBytes,
		&i.PageCount,
		&i.StorageKey,
		&i.Status,
		&i.LinesTotal,
		&i.TotalMatched,
		&i.ReconciledAt,
		&i.UploadedAt,
		&i.UpdatedAt,
	)

	return i, err
}

// Flags persist as a comma-joined text column; the empty string round-trips
// to an empty slice.
func scanLine(s repository.Scanner) (Line, error) {
	var (
		l     Line
		flags string
	)

	err := s.Scan(
		&l.ID,
		&l.InvoiceID,
		&l.LineNumber,
		&l.Page,
		&l.WorkDate,
		&l.Site,
		&l.Role,
		&l.HoursOnSite,
		&l.HoursTravel,
		&l.HoursYard,
		&l.RatePerHour,
		&l.LineTotal,
		&l.MatchStatus,
		&l.MatchScore,
		&flags,
		&l.MatchNotes,
		&l.JobsheetID,
		&l.YardRecordID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	if flags != "" {
		l.MatchFlags = strings.Split(flags, ",")
	}

	return l, err
}

func joinFlags(flags []string) string {
	return strings.Join(flags, ",")
}
