package engine

import "errors"

// Failures from the read-only collaborators. Both are contained at line (or
// invoice) granularity and degrade the affected lines to NEEDS_REVIEW; they
// never abort a reconciliation run.
var (
	ErrUnknownOperator   = errors.New("no rate profile for operator")
	ErrLookupUnavailable = errors.New("reference record lookup unavailable")
)

// ErrNoLines indicates a malformed invoice shell. Callers are expected to
// validate the shell before reconciliation; this is the only fatal condition.
var ErrNoLines = errors.New("invoice has no lines")
