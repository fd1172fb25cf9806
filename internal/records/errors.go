package records

import (
	"errors"
	"net/http"
)

// Domain errors for reference record operations.
var (
	ErrNotFound      = errors.New("reference record not found")
	ErrDuplicate     = errors.New("reference record already exists")
	ErrInvalidRecord = errors.New("record requires a kind, operator, work date, and non-negative hours")
)

// MapHTTPStatus maps record domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRecord) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
