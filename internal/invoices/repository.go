package invoices

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantline/reckon/internal/engine"
	"github.com/plantline/reckon/internal/operators"
	"github.com/plantline/reckon/internal/records"
	"github.com/plantline/reckon/internal/workflow"
	"github.com/plantline/reckon/pkg/pagination"
	"github.com/plantline/reckon/pkg/query"
	"github.com/plantline/reckon/pkg/repository"
	"github.com/plantline/reckon/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	workflow   *workflow.Runtime
	operators  operators.System
	records    records.System
	engineCfg  engine.Config
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an invoice repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	wf *workflow.Runtime,
	ops operators.System,
	recs records.System,
	engineCfg engine.Config,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	engineCfg.Normalize()
	return &repo{
		db:         db,
		storage:    store,
		workflow:   wf,
		operators:  ops,
		records:    recs,
		engineCfg:  engineCfg,
		logger:     logger.With("system", "invoices"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.storage, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Invoice], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Number", "Subcontractor", "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	inv, err := repository.QueryOne(ctx, r.db, q, args, scanInvoice)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	lines, err := r.findLines(ctx, id)
	if err != nil {
		return nil, err
	}

	inv.Lines = lines
	return &inv, nil
}

func (r *repo) findLines(ctx context.Context, invoiceID uuid.UUID) ([]Line, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_number",
		lineColumns,
	)

	lines, err := repository.QueryMany(ctx, r.db, q, []any{invoiceID}, scanLine)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	return lines, nil
}

func (r *repo) Upload(ctx context.Context, cmd UploadCommand) (*Invoice, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload invoice blob: %w", err)
	}

	result, err := workflow.Execute(ctx, r.workflow, key)
	if err != nil {
		r.compensateBlob(ctx, key)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	inv, err := r.insertExtracted(ctx, id, key, cmd, result)
	if err != nil {
		r.compensateBlob(ctx, key)
		return nil, err
	}

	r.logger.Info("invoice uploaded",
		"id", inv.ID,
		"number", inv.Number,
		"subcontractor", inv.Subcontractor,
		"lines", len(inv.Lines),
		"pages_failed", len(result.PagesFailed),
	)
	return inv, nil
}

// insertExtracted registers the invoice header and its extracted lines in a
// single transaction. The stated document total takes precedence; absent
// one, the sum of extracted line totals stands in so the total check stays
// meaningful.
func (r *repo) insertExtracted(
	ctx context.Context,
	id uuid.UUID,
	key string,
	cmd UploadCommand,
	result *workflow.Result,
) (*Invoice, error) {
	total := decimal.Zero
	for _, line := range result.Lines {
		total = total.Add(line.LineTotal)
	}
	if result.TotalAmount != nil {
		total = *result.TotalAmount
	}

	q := `
		INSERT INTO invoices(
			id, invoice_number, invoice_date, subcontractor_name, total_amount,
			filename, content_type, size_bytes, page_count, storage_key, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, invoice_number, invoice_date, subcontractor_name, total_amount,
		          filename, content_type, size_bytes, page_count, storage_key, status,
		          lines_total, total_matched, reconciled_at, uploaded_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Number,
		cmd.InvoiceDate,
		cmd.Subcontractor,
		total,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
		StatusExtracted,
	}

	lineSQL := `
		INSERT INTO invoice_lines(
			invoice_id, line_number, page, work_date, site_location, role,
			hours_on_site, hours_travel, hours_yard, rate_per_hour, line_total
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	inv, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Invoice, error) {
		inserted, err := repository.QueryOne(ctx, tx, q, insertArgs, scanInvoice)
		if err != nil {
			return Invoice{}, err
		}

		for n, line := range result.Lines {
			if _, err := tx.ExecContext(ctx, lineSQL,
				inserted.ID,
				n+1,
				line.Page,
				line.WorkDate,
				line.Site,
				line.Role,
				line.HoursOnSite,
				line.HoursTravel,
				line.HoursYard,
				line.RatePerHour,
				line.LineTotal,
			); err != nil {
				return Invoice{}, fmt.Errorf("insert line %d: %w", n+1, err)
			}
		}

		return inserted, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	lines, err := r.findLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines

	return &inv, nil
}

func (r *repo) Reconcile(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(inv.Lines) == 0 {
		return nil, ErrNoLines
	}

	eng := engine.New(
		r.engineCfg,
		r.resolveProfiles(ctx),
		r.resolveRecords(ctx, inv),
		r.logger,
	)

	result, err := eng.Reconcile(ctx, toEngineInvoice(inv))
	if err != nil {
		return nil, fmt.Errorf("reconcile invoice %s: %w", inv.Number, err)
	}

	if err := r.persistResult(ctx, inv, result); err != nil {
		return nil, err
	}

	return r.Find(ctx, id)
}

// resolveProfiles snapshots the rate profiles for one run. A failed snapshot
// degrades every line to review rather than aborting the run.
func (r *repo) resolveProfiles(ctx context.Context) engine.Resolver {
	profiles, err := r.operators.Snapshot(ctx)
	if err != nil {
		r.logger.Warn("rate profile snapshot failed", "error", err)
		return failedResolver{err: err}
	}
	return profiles
}

func (r *repo) resolveRecords(ctx context.Context, inv *Invoice) engine.Index {
	from, to := lineDateRange(inv, r.engineCfg.DateToleranceDays)

	index, err := r.records.Snapshot(ctx, inv.Subcontractor, from, to)
	if err != nil {
		r.logger.Warn("reference record snapshot failed", "error", err)
		return failedIndex{err: err}
	}
	return index
}

// lineDateRange bounds the reference snapshot to the claimed work dates
// widened by the lookup tolerance. Undated lines cannot match anyway, so an
// invoice with no dated lines falls back to the invoice date.
func lineDateRange(inv *Invoice, toleranceDays int) (time.Time, time.Time) {
	var from, to time.Time

	for _, line := range inv.Lines {
		if line.WorkDate == nil {
			continue
		}
		d := *line.WorkDate
		if from.IsZero() || d.Before(from) {
			from = d
		}
		if to.IsZero() || d.After(to) {
			to = d
		}
	}

	if from.IsZero() {
		from, to = inv.InvoiceDate, inv.InvoiceDate
	}

	pad := time.Duration(toleranceDays) * 24 * time.Hour
	return from.Add(-pad), to.Add(pad)
}

func (r *repo) persistResult(ctx context.Context, inv *Invoice, result engine.Invoice) error {
	lineSQL := `
		UPDATE invoice_lines
		SET match_status = $1, match_score = $2, match_flags = $3,
		    match_notes = $4, jobsheet_id = $5, yard_record_id = $6,
		    updated_at = NOW()
		WHERE id = $7`

	invoiceSQL := `
		UPDATE invoices
		SET lines_total = $1, total_matched = $2, status = $3,
		    reconciled_at = NOW(), updated_at = NOW()
		WHERE id = $4`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for i, line := range result.Lines {
			stored := &inv.Lines[i]
			applyMatch(stored, line.Match)

			if _, err := tx.ExecContext(ctx, lineSQL,
				stored.MatchStatus,
				stored.MatchScore,
				joinFlags(stored.MatchFlags),
				stored.MatchNotes,
				stored.JobsheetID,
				stored.YardRecordID,
				stored.ID,
			); err != nil {
				return struct{}{}, fmt.Errorf("persist line %d: %w", stored.LineNumber, err)
			}
		}

		if _, err := tx.ExecContext(ctx, invoiceSQL,
			result.LinesTotal,
			result.TotalMatched,
			StatusReconciled,
			inv.ID,
		); err != nil {
			return struct{}{}, fmt.Errorf("persist invoice outcome: %w", err)
		}

		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("invoice reconciled",
		"id", inv.ID,
		"number", inv.Number,
		"lines", len(result.Lines),
		"total_matched", result.TotalMatched,
	)
	return nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	inv, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM invoices WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, inv.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", inv.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("invoice deleted", "id", id)
	return nil
}

func (r *repo) compensateBlob(ctx context.Context, key string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

// failedResolver and failedIndex stand in when a snapshot read fails, so the
// engine degrades every line instead of the run aborting.
type failedResolver struct{ err error }

func (f failedResolver) Resolve(string) (engine.RateProfile, error) {
	return engine.RateProfile{}, f.err
}

type failedIndex struct{ err error }

func (f failedIndex) FindCandidates(string, *time.Time, string, int) ([]engine.ReferenceRecord, error) {
	return nil, f.err
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("invoices/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "invoice"
	}
	return url.PathEscape(name)
}
