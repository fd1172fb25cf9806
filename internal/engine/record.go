package engine

import "time"

// RecordKind tags a reference record as a job-sheet or yard sign-in entry.
// Every record belongs to exactly one kind.
type RecordKind string

const (
	KindJobsheet RecordKind = "jobsheet"
	KindYard     RecordKind = "yard"
)

// ReferenceRecord is a ground-truth entry from the job-sheet or yard system.
// Records are owned by the external operations system; the engine never
// mutates them.
type ReferenceRecord struct {
	ID          string
	Kind        RecordKind
	Operator    string
	WorkDate    time.Time
	Site        string
	Role        string
	HoursOnSite float64
	HoursTravel float64
	HoursYard   float64
}

// TotalHours returns the sum of the record's hour categories.
func (r ReferenceRecord) TotalHours() float64 {
	return r.HoursOnSite + r.HoursTravel + r.HoursYard
}

// Index is the read-only reference record lookup. An empty result is a
// normal outcome, not an error; an error indicates the underlying source was
// unavailable and degrades only the line being scored.
type Index interface {
	FindCandidates(operator string, workDate *time.Time, site string, toleranceDays int) ([]ReferenceRecord, error)
}
