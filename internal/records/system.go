package records

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/reckon/internal/engine"
	"github.com/plantline/reckon/pkg/pagination"
)

// System defines the public contract for reference record domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Create(ctx context.Context, cmd CreateCommand) (*Record, error)
	CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult
	Delete(ctx context.Context, id uuid.UUID) error

	// Snapshot reads a consistent point-in-time copy of the operator's
	// records within [from, to] and returns them as the engine's immutable
	// index for one reconciliation run.
	Snapshot(ctx context.Context, operator string, from, to time.Time) (*engine.MemoryIndex, error)
}
