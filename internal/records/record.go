// Package records implements the reference record domain for Reckon: the
// read-mostly store of job-sheet and yard sign-in entries that serve as
// ground truth during invoice reconciliation. Records are ingested from the
// external operations systems and never mutated by the engine.
package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/plantline/reckon/internal/engine"
)

// Record is a stored job-sheet or yard sign-in entry.
type Record struct {
	ID          uuid.UUID         `json:"id"`
	Kind        engine.RecordKind `json:"kind"`
	Operator    string            `json:"operator_name"`
	WorkDate    time.Time         `json:"work_date"`
	Site        string            `json:"site_location"`
	Role        string            `json:"role"`
	HoursOnSite float64           `json:"hours_on_site"`
	HoursTravel float64           `json:"hours_travel"`
	HoursYard   float64           `json:"hours_yard"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CreateCommand carries the data needed to ingest a single reference record.
type CreateCommand struct {
	Kind        engine.RecordKind `json:"kind"`
	Operator    string            `json:"operator_name"`
	WorkDate    time.Time         `json:"work_date"`
	Site        string            `json:"site_location"`
	Role        string            `json:"role"`
	HoursOnSite float64           `json:"hours_on_site"`
	HoursTravel float64           `json:"hours_travel"`
	HoursYard   float64           `json:"hours_yard"`
}

func (c CreateCommand) validate() error {
	if c.Kind != engine.KindJobsheet && c.Kind != engine.KindYard {
		return ErrInvalidRecord
	}
	if c.Operator == "" || c.WorkDate.IsZero() {
		return ErrInvalidRecord
	}
	if c.HoursOnSite < 0 || c.HoursTravel < 0 || c.HoursYard < 0 {
		return ErrInvalidRecord
	}
	return nil
}

// BatchResult reports the outcome of a single entry within a batch ingest.
type BatchResult struct {
	Record *Record `json:"record,omitempty"`
	Index  int     `json:"index"`
	Error  string  `json:"error,omitempty"`
}
