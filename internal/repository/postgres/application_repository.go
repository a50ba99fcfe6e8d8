package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"taskpay/internal/common"
	"taskpay/internal/domain/application"
)

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, task_id, applicant_id, cover_letter, proposed_budget, status, created_at, updated_at`

func (r *ApplicationRepository) Create(ctx context.Context, app application.Application) (*application.Application, error) {
	app.ID = common.NewUUID()
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO task_applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID, app.TaskID, app.ApplicantID, app.CoverLetter, app.ProposedBudget, app.Status, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		// The (task, applicant) unique constraint is the duplicate-apply guard.
		if isUniqueViolation(err) {
			return nil, common.NewError(common.CodeConflict, "already applied to this task", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to create application", err)
	}
	return &app, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id common.UUID) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM task_applications WHERE id = $1`, id)
	return scanApplication(row)
}

func (r *ApplicationRepository) FindByTaskAndApplicant(ctx context.Context, taskID, applicantID common.UUID) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM task_applications WHERE task_id = $1 AND applicant_id = $2`, taskID, applicantID)
	return scanApplication(row)
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID common.UUID, statuses []application.Status, limit, offset int) ([]application.Application, int, error) {
	where := `WHERE applicant_id = $1`
	args := []any{applicantID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		args = append(args, pq.Array(names))
		where += ` AND status = ANY($2)`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_applications `+where, args...).Scan(&total); err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to count applications", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + applicationColumns + ` FROM task_applications ` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	defer rows.Close()
	items := []application.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *app)
	}
	return items, total, nil
}

func (r *ApplicationRepository) ListByTask(ctx context.Context, taskID common.UUID) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM task_applications WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list task applications", err)
	}
	defer rows.Close()
	items := []application.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *app)
	}
	return items, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id common.UUID, status application.Status) (*application.Application, error) {
	_, err := r.db.ExecContext(ctx, `UPDATE task_applications SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update application", err)
	}
	return r.GetByID(ctx, id)
}

func (r *ApplicationRepository) RejectOthersByTask(ctx context.Context, taskID, keepID common.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE task_applications SET status = $1, updated_at = $2
		WHERE task_id = $3 AND id <> $4 AND status NOT IN ('completed', 'rejected', 'withdrawn', 'cancelled')`,
		application.StatusRejected, time.Now().UTC(), taskID, keepID)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to reject competing applications", err)
	}
	return nil
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var app application.Application
	if err := row.Scan(&app.ID, &app.TaskID, &app.ApplicantID, &app.CoverLetter, &app.ProposedBudget, &app.Status, &app.CreatedAt, &app.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "application not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to scan application", err)
	}
	return &app, nil
}
