package invoices_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/plantline/reckon/internal/invoices"
	"github.com/plantline/reckon/pkg/query"
)

func invoiceProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "invoices", "i").
		Project("invoice_number", "Number").
		Project("subcontractor_name", "Subcontractor").
		Project("status", "Status").
		Project("total_matched", "TotalMatched").
		Project("invoice_date", "InvoiceDate")
}

func ptr[T any](v T) *T { return &v }

func TestFiltersApply(t *testing.T) {
	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	f := invoices.Filters{
		Subcontractor: ptr("mason"),
		Status:        ptr("reconciled"),
		TotalMatched:  ptr(false),
		From:          &from,
	}

	b := query.NewBuilder(invoiceProjection())
	sql, args := f.Apply(b).Build()

	wantSQL := "SELECT i.invoice_number, i.subcontractor_name, i.status, i.total_matched, i.invoice_date " +
		"FROM public.invoices i " +
		"WHERE i.subcontractor_name ILIKE $1 AND i.status = $2 AND i.total_matched = $3 AND i.invoice_date >= $4"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 4 {
		t.Errorf("args = %v, want 4 args", args)
	}
}

func TestFiltersApplyEmpty(t *testing.T) {
	b := query.NewBuilder(invoiceProjection())
	sql, args := invoices.Filters{}.Apply(b).Build()

	wantSQL := "SELECT i.invoice_number, i.subcontractor_name, i.status, i.total_matched, i.invoice_date FROM public.invoices i"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("number", "INV-1042")
	values.Set("subcontractor", "Mason")
	values.Set("status", "extracted")
	values.Set("total_matched", "false")
	values.Set("from", "2025-03-01")
	values.Set("to", "2025-03-31")

	f := invoices.FiltersFromQuery(values)

	if f.Number == nil || *f.Number != "INV-1042" {
		t.Errorf("number = %v, want INV-1042", f.Number)
	}
	if f.Subcontractor == nil || *f.Subcontractor != "Mason" {
		t.Errorf("subcontractor = %v, want Mason", f.Subcontractor)
	}
	if f.Status == nil || *f.Status != "extracted" {
		t.Errorf("status = %v, want extracted", f.Status)
	}
	if f.TotalMatched == nil || *f.TotalMatched {
		t.Errorf("total_matched = %v, want false", f.TotalMatched)
	}
	if f.From == nil || f.From.Format("2006-01-02") != "2025-03-01" {
		t.Errorf("from = %v, want 2025-03-01", f.From)
	}
	if f.To == nil || f.To.Format("2006-01-02") != "2025-03-31" {
		t.Errorf("to = %v, want 2025-03-31", f.To)
	}
}

func TestFiltersFromQueryBadValuesIgnored(t *testing.T) {
	values := url.Values{}
	values.Set("total_matched", "sort of")
	values.Set("from", "last tuesday")

	f := invoices.FiltersFromQuery(values)
	if f.TotalMatched != nil {
		t.Errorf("total_matched = %v, want nil", f.TotalMatched)
	}
	if f.From != nil {
		t.Errorf("from = %v, want nil", f.From)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{invoices.ErrNotFound, http.StatusNotFound},
		{invoices.ErrDuplicate, http.StatusConflict},
		{invoices.ErrInvalidFile, http.StatusBadRequest},
		{invoices.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{invoices.ErrExtractionFailed, http.StatusUnprocessableEntity},
		{invoices.ErrNoLines, http.StatusUnprocessableEntity},
		{fmt.Errorf("upload: %w", invoices.ErrExtractionFailed), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := invoices.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
