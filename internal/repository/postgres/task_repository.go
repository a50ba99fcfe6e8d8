package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"taskpay/internal/common"
	"taskpay/internal/domain/task"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `t.id, t.client_id, t.title, t.description, t.category_id, t.location_id, t.budget, t.deadline, t.status,
	(SELECT COUNT(*) FROM task_applications a WHERE a.task_id = t.id), t.created_at, t.updated_at`

func (r *TaskRepository) Create(ctx context.Context, t task.Task) (*task.Task, error) {
	t.ID = common.NewUUID()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO tasks (id, client_id, title, description, category_id, location_id, budget, deadline, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.ClientID, t.Title, t.Description, t.CategoryID, t.LocationID, t.Budget, t.Deadline, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, common.NewValidationError("unknown reference", map[string]string{"category_id": "category or location does not exist"})
		}
		return nil, common.NewError(common.CodeInternal, "failed to create task", err)
	}
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	t.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `UPDATE tasks SET title = $1, description = $2, category_id = $3, location_id = $4, budget = $5, deadline = $6, status = $7, updated_at = $8
		WHERE id = $9`,
		t.Title, t.Description, t.CategoryID, t.LocationID, t.Budget, t.Deadline, t.Status, t.UpdatedAt, t.ID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update task", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "task not found", sql.ErrNoRows)
	}
	return r.GetByID(ctx, t.ID)
}

func (r *TaskRepository) GetByID(ctx context.Context, id common.UUID) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "task not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load task", err)
	}
	return t, nil
}

func (r *TaskRepository) ListOpen(ctx context.Context, limit, offset int, filter task.ListFilter) ([]task.Task, int, error) {
	where := `WHERE t.status = $1`
	args := []any{task.StatusOpen}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where += ` AND t.category_id = $` + strconv.Itoa(len(args))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		where += ` AND t.location_id = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t `+where, args...).Scan(&total); err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to count tasks", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + taskColumns + ` FROM tasks t ` + where +
		` ORDER BY t.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to list tasks", err)
	}
	defer rows.Close()
	items, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *TaskRepository) ListByClient(ctx context.Context, clientID common.UUID, statuses []task.Status) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.client_id = $1`
	args := []any{clientID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		args = append(args, pq.Array(names))
		query += ` AND t.status = ANY($2)`
	}
	query += ` ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list client tasks", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *TaskRepository) Stats(ctx context.Context, clientID common.UUID) (*task.ClientStats, error) {
	row := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'filled'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE((SELECT COUNT(*) FROM task_applications a JOIN tasks t2 ON t2.id = a.task_id WHERE t2.client_id = $1), 0)
		FROM tasks WHERE client_id = $1`, clientID)
	var stats task.ClientStats
	if err := row.Scan(&stats.TotalTasks, &stats.OpenTasks, &stats.FilledTasks, &stats.CompletedTasks, &stats.TotalApplications); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to load client stats", err)
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	if err := row.Scan(&t.ID, &t.ClientID, &t.Title, &t.Description, &t.CategoryID, &t.LocationID, &t.Budget, &t.Deadline, &t.Status, &t.ApplicantCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]task.Task, error) {
	items := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan task", err)
		}
		items = append(items, *t)
	}
	return items, nil
}
