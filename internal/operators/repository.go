package operators

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

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

// New creates an operator repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "operators"),
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
) (*pagination.PageResult[Operator], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Notes")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count operators: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanOperator)
	if err != nil {
		return nil, fmt.Errorf("query operators: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Operator, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	o, err := repository.QueryOne(ctx, r.db, q, args, scanOperator)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &o, nil
}

func (r *repo) FindByName(ctx context.Context, name string) (*Operator, error) {
	q := `
		SELECT id, name, base_rate, travel_rate, yard_rate, hgv_eligible,
		       notes, created_at, updated_at
		FROM operators
		WHERE lower(trim(name)) = lower(trim($1))`

	o, err := repository.QueryOne(ctx, r.db, q, []any{name}, scanOperator)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &o, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Operator, error) {
	if err := validateRates(cmd.Name, cmd.BaseRate, cmd.TravelRate, cmd.YardRate); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO operators(name, base_rate, travel_rate, yard_rate, hgv_eligible, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, base_rate, travel_rate, yard_rate, hgv_eligible,
		          notes, created_at, updated_at`

	insertArgs := []any{
		cmd.Name,
		cmd.BaseRate,
		cmd.TravelRate,
		cmd.YardRate,
		cmd.HGVEligible,
		cmd.Notes,
	}

	o, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Operator, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanOperator)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("operator created", "id", o.ID, "name", o.Name)
	return &o, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Operator, error) {
	if err := validateRates(cmd.Name, cmd.BaseRate, cmd.TravelRate, cmd.YardRate); err != nil {
		return nil, err
	}

	q := `
		UPDATE operators
		SET name = $1, base_rate = $2, travel_rate = $3, yard_rate = $4,
		    hgv_eligible = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING id, name, base_rate, travel_rate, yard_rate, hgv_eligible,
		          notes, created_at, updated_at`

	updateArgs := []any{
		cmd.Name,
		cmd.BaseRate,
		cmd.TravelRate,
		cmd.YardRate,
		cmd.HGVEligible,
		cmd.Notes,
		id,
	}

	o, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Operator, error) {
		return repository.QueryOne(ctx, tx, q, updateArgs, scanOperator)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("operator updated", "id", o.ID, "name", o.Name)
	return &o, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM operators WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("operator deleted", "id", id)
	return nil
}

func (r *repo) Snapshot(ctx context.Context) (*engine.ProfileSet, error) {
	q, args := query.NewBuilder(projection, defaultSort).Build()

	ops, err := repository.QueryMany(ctx, r.db, q, args, scanOperator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrLookupUnavailable, err)
	}

	profiles := make([]engine.RateProfile, 0, len(ops))
	for _, o := range ops {
		profiles = append(profiles, engine.RateProfile{
			Operator:    o.Name,
			BaseRate:    o.BaseRate,
			TravelRate:  o.TravelRate,
			YardRate:    o.YardRate,
			HGVEligible: o.HGVEligible,
			Notes:       o.Notes,
		})
	}

	return engine.NewProfileSet(profiles), nil
}
