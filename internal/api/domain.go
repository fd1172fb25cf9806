package api

import (
	"github.com/plantline/reckon/internal/invoices"
	"github.com/plantline/reckon/internal/operators"
	"github.com/plantline/reckon/internal/records"
	"github.com/plantline/reckon/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Operators operators.System
	Records   records.System
	Invoices  invoices.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	operatorsSystem := operators.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	recordsSystem := records.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	extraction := &workflow.Runtime{
		Agent:   runtime.Agent,
		Storage: runtime.Storage,
		Logger:  runtime.Logger,
	}

	invoicesSystem := invoices.New(
		runtime.Database.Connection(),
		runtime.Storage,
		extraction,
		operatorsSystem,
		recordsSystem,
		runtime.Engine,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Operators: operatorsSystem,
		Records:   recordsSystem,
		Invoices:  invoicesSystem,
	}
}
