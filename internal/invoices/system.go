package invoices

import (
	"context"

	"github.com/google/uuid"

	"github.com/plantline/reckon/pkg/pagination"
)

// System defines the public contract for invoice domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Invoice], error)

	// Find returns the invoice with its claim lines in line order.
	Find(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// Upload stores the PDF blob, runs the extraction workflow, and
	// registers the invoice with its extracted claim lines in one
	// transaction. The blob is removed if any later step fails.
	Upload(ctx context.Context, cmd UploadCommand) (*Invoice, error)

	// Reconcile scores every claim line against the current rate profile
	// and reference record snapshots and persists the outcome. Each run
	// replaces all prior match results.
	Reconcile(ctx context.Context, id uuid.UUID) (*Invoice, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
