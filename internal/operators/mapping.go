package operators

import (
	"net/url"
	"strconv"

	"github.com/plantline/reckon/pkg/query"
	"github.com/plantline/reckon/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "operators", "o").
	Project("id", "ID").
	Project("name", "Name").
	Project("base_rate", "BaseRate").
	Project("travel_rate", "TravelRate").
	Project("yard_rate", "YardRate").
	Project("hgv_eligible", "HGVEligible").
	Project("notes", "Notes").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "Name"}

// Filters contains optional filtering criteria for operator queries.
// Nil fields are ignored.
type Filters struct {
	Name        *string `json:"name,omitempty"`
	HGVEligible *bool   `json:"hgv_eligible,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereEquals("HGVEligible", f.HGVEligible)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if h := values.Get("hgv_eligible"); h != "" {
		if b, err := strconv.ParseBool(h); err == nil {
			f.HGVEligible = &b
		}
	}

	return f
}

func scanOperator(s repository.Scanner) (Operator, error) {
	var o Operator

	err := s.Scan(
		&o.ID,
		&o.Name,
		&o.BaseRate,
		&o.TravelRate,
		&o.YardRate,
		&o.HGVEligible,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)

	return o, err
}
