package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
)

// createdAtLayout sorts lexicographically in both drivers.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ReportRepository stores the current report. Saving a report supersedes
// whatever was stored before.
type ReportRepository interface {
	Save(ctx context.Context, r *entity.Report) error
	Latest(ctx context.Context) (*entity.Report, error)
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	Clear(ctx context.Context) (int64, error)
}

type reportRow struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	ReportType string `db:"report_type"`
	Status     string `db:"status"`
	ModelUsed  string `db:"model_used"`
	CreatedAt  string `db:"created_at"`
	Payload    string `db:"payload"`
}

type reportRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewReportRepository(db *DB, logger *slog.Logger) ReportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportRepository{db: db.DB, logger: logger}
}

func (r *reportRepository) Save(ctx context.Context, rep *entity.Report) error {
	if rep == nil || rep.ID == "" {
		return fmt.Errorf("%w: report without id", common.ErrInvalidInput)
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM reports`)
	if err != nil {
		return fmt.Errorf("%w: supersede: %v", common.ErrDatabase, err)
	}
	superseded, _ := res.RowsAffected()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, title, report_type, status, model_used, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		rep.ID,
		rep.Title,
		rep.Type,
		rep.Status,
		rep.ModelUsed,
		rep.Date.UTC().Format(createdAtLayout),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", common.ErrDatabase, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}

	r.logger.Info("repository.report.saved",
		"report_id", rep.ID,
		"metrics", len(rep.Metrics),
		"superseded", superseded,
	)
	return nil
}

func (r *reportRepository) Latest(ctx context.Context) (*entity.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, title, report_type, status, model_used, created_at, payload
		FROM reports
		ORDER BY created_at DESC
		LIMIT 1
	`)
	return r.decode(row, err, "latest")
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, title, report_type, status, model_used, created_at, payload
		FROM reports
		WHERE id = $1
	`, id)
	return r.decode(row, err, id)
}

// Clear removes every stored report and returns how many were deleted.
func (r *reportRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports`)
	if err != nil {
		return 0, fmt.Errorf("%w: clear: %v", common.ErrDatabase, err)
	}
	n, _ := res.RowsAffected()
	r.logger.Info("repository.report.cleared", "deleted", n)
	return n, nil
}

func (r *reportRepository) decode(row reportRow, err error, key string) (*entity.Report, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "report "+key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	var rep entity.Report
	if err := json.Unmarshal([]byte(row.Payload), &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", row.ID, err)
	}
	if rep.Date.IsZero() {
		if t, perr := time.Parse(createdAtLayout, row.CreatedAt); perr == nil {
			rep.Date = t
		}
	}
	return &rep, nil
}
