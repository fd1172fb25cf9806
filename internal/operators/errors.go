package operators

import (
	"errors"
	"net/http"
)

// Domain errors for rate profile operations.
var (
	ErrNotFound       = errors.New("operator not found")
	ErrDuplicate      = errors.New("operator already exists")
	ErrInvalidProfile = errors.New("profile requires a name and non-negative rates")
)

// MapHTTPStatus maps operator domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidProfile) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
