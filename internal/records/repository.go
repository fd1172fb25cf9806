package records

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/reckon/internal/engine"
	"github.com/plantline/reckon/pkg/pagination"
	"github.com/plantline/reckon/pkg/query"
	"github.com/plantline/reckon/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a reference record repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "records"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Operator", "Site", "Role")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Record, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO reference_records(
			kind, operator_name, work_date, site_location, role,
			hours_on_site, hours_travel, hours_yard
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, kind, operator_name, work_date, site_location, role,
		          hours_on_site, hours_travel, hours_yard, created_at`

	insertArgs := []any{
		cmd.Kind,
		cmd.Operator,
		cmd.WorkDate,
		cmd.Site,
		cmd.Role,
		cmd.HoursOnSite,
		cmd.HoursTravel,
		cmd.HoursYard,
	}

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Record, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanRecord)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("reference record created",
		"id", rec.ID,
		"kind", rec.Kind,
		"operator", rec.Operator,
	)
	return &rec, nil
}

// CreateBatch ingests entries independently: one invalid entry reports its
// error in place without failing the rest of the batch.
func (r *repo) CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult {
	results := make([]BatchResult, 0, len(cmds))

	for i, cmd := range cmds {
		rec, err := r.Create(ctx, cmd)
		if err != nil {
			results = append(results, BatchResult{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, BatchResult{Index: i, Record: rec})
	}

	return results
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM reference_records WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("reference record deleted", "id", id)
	return nil
}

func (r *repo) Snapshot(ctx context.Context, operator string, from, to time.Time) (*engine.MemoryIndex, error) {
	q := `
		SELECT id, kind, operator_name, work_date, site_location, role,
		       hours_on_site, hours_travel, hours_yard, created_at
		FROM reference_records
		WHERE lower(trim(operator_name)) = lower(trim($1))
		  AND work_date BETWEEN $2 AND $3
		ORDER BY id`

	recs, err := repository.QueryMany(ctx, r.db, q, []any{operator, from, to}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrLookupUnavailable, err)
	}

	refs := make([]engine.ReferenceRecord, 0, len(recs))
	for _, rec := range recs {
		refs = append(refs, toEngineRecord(rec))
	}

	r.logger.Debug("reference snapshot built",
		"operator", operator,
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"records", len(refs),
	)

	return engine.NewMemoryIndex(refs), nil
}
