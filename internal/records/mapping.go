package records

import (
	"net/url"
	"time"

	"github.com/plantline/reckon/internal/engine"
	"github.com/plantline/reckon/pkg/query"
	"github.com/plantline/reckon/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reference_records", "r").
	Project("id", "ID").
	Project("kind", "Kind").
	Project("operator_name", "Operator").
	Project("work_date", "WorkDate").
	Project("site_location", "Site").
	Project("role", "Role").
	Project("hours_on_site", "HoursOnSite").
	Project("hours_travel", "HoursTravel").
	Project("hours_yard", "HoursYard").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "WorkDate",
	Descending: true,
}

// Filters contains optional filtering criteria for record queries.
// Nil fields are ignored.
type Filters struct {
	Kind     *string    `json:"kind,omitempty"`
	Operator *string    `json:"operator_name,omitempty"`
	Site     *string    `json:"site_location,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Kind", f.Kind).
		WhereContains("Operator", f.Operator).
		WhereContains("Site", f.Site).
		WhereAtLeast("WorkDate", f.From).
		WhereAtMost("WorkDate", f.To)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Date bounds use the YYYY-MM-DD form; unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if k := values.Get("kind"); k != "" {
		f.Kind = &k
	}

	if o := values.Get("operator"); o != "" {
		f.Operator = &o
	}

	if s := values.Get("site"); s != "" {
		f.Site = &s
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

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record

	err := s.Scan(
		&r.ID,
		&r.Kind,
		&r.Operator,
		&r.WorkDate,
		&r.Site,
		&r.Role,
		&r.HoursOnSite,
		&r.HoursTravel,
		&r.HoursYard,
		&r.CreatedAt,
	)

	return r, err
}

func toEngineRecord(r Record) engine.ReferenceRecord {
	return engine.ReferenceRecord{
		ID:          r.ID.String(),
		Kind:        r.Kind,
		Operator:    r.Operator,
		WorkDate:    r.WorkDate,
		Site:        r.Site,
		Role:        r.Role,
		HoursOnSite: r.HoursOnSite,
		HoursTravel: r.HoursTravel,
		HoursYard:   r.HoursYard,
	}
}
