package invoices

import (
	"errors"
	"net/http"
)

// Domain errors for invoice operations.
var (
	ErrNotFound         = errors.New("invoice not found")
	ErrDuplicate        = errors.New("invoice already exists")
	ErrInvalidFile      = errors.New("upload requires a PDF file, invoice number, date, and subcontractor")
	ErrFileTooLarge     = errors.New("file exceeds maximum upload size")
	ErrExtractionFailed = errors.New("invoice extraction failed")
	ErrNoLines          = errors.New("invoice has no claim lines to reconcile")
)

// MapHTTPStatus maps invoice domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoLines):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
