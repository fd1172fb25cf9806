// Package operators implements the rate profile domain for Reckon.
// It provides types, data access, and business logic for managing operator
// rate profiles and for producing the immutable profile snapshots the
// reconciliation engine validates against.
package operators

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operator represents a subcontractor operator's contracted rate profile.
// Names are unique on a trimmed, case-folded key.
type Operator struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	TravelRate  decimal.Decimal `json:"travel_rate"`
	YardRate    decimal.Decimal `json:"yard_rate"`
	HGVEligible bool            `json:"hgv_eligible"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateCommand carries the data needed to register a new rate profile.
type CreateCommand struct {
	Name        string          `json:"name"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	TravelRate  decimal.Decimal `json:"travel_rate"`
	YardRate    decimal.Decimal `json:"yard_rate"`
	HGVEligible bool            `json:"hgv_eligible"`
	Notes       string          `json:"notes"`
}

// UpdateCommand carries a full replacement of a profile's editable fields.
type UpdateCommand struct {
	Name        string          `json:"name"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	TravelRate  decimal.Decimal `json:"travel_rate"`
	YardRate    decimal.Decimal `json:"yard_rate"`
	HGVEligible bool            `json:"hgv_eligible"`
	Notes       string          `json:"notes"`
}

func validateRates(name string, rates ...decimal.Decimal) error {
	if name == "" {
		return ErrInvalidProfile
	}
	for _, r := range rates {
		if r.IsNegative() {
			return ErrInvalidProfile
		}
	}
	return nil
}
