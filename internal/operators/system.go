package operators

import (
	"context"

	"github.com/google/uuid"

	"github.com/plantline/reckon/internal/engine"
	"github.com/plantline/reckon/pkg/pagination"
)

// System defines the public contract for rate profile domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Operator], error)

	Find(ctx context.Context, id uuid.UUID) (*Operator, error)
	FindByName(ctx context.Context, name string) (*Operator, error)
	Create(ctx context.Context, cmd CreateCommand) (*Operator, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Operator, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Snapshot reads a consistent point-in-time copy of every rate profile
	// for use as the engine's resolver during one reconciliation run.
	Snapshot(ctx context.Context) (*engine.ProfileSet, error)
}
