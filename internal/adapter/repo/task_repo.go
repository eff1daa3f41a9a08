package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
)

// TaskRepositoryPG keeps an audit trail of submitted generation tasks in
// PostgreSQL. The wizard core never reads it back; operators do, through the
// task lookup endpoint.
type TaskRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a task repository backed by PostgreSQL.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepositoryPG {
	return &TaskRepositoryPG{pool: pool}
}

// Record inserts a new task row.
func (r *TaskRepositoryPG) Record(ctx context.Context, task *domain.GenerationTask) error {
	query := `
INSERT INTO generation_tasks (id, provider_task_id, kind, status, prompt, reference_url, project_id, error_message, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.ProviderTaskID,
		task.Kind,
		task.Status,
		task.Prompt,
		nullableString(task.ReferenceURL),
		task.ProjectID,
		nullableString(task.ErrorMessage),
		task.SubmittedAt,
	)
	return err
}

// UpdateStatus updates task status and optionally error/result fields.
func (r *TaskRepositoryPG) UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus, errMsg, resultURL string) error {
	query := `
UPDATE generation_tasks
SET status = $2,
    updated_at = NOW(),
    error_message = COALESCE($3, error_message),
    result_url = COALESCE($4, result_url)
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, taskID, status, nullableString(errMsg), nullableString(resultURL))
	return err
}

// GetByID fetches a task row by its identifier.
func (r *TaskRepositoryPG) GetByID(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	query := `
SELECT id, provider_task_id, kind, status, prompt, COALESCE(reference_url, ''), project_id, COALESCE(error_message, ''), COALESCE(result_url, ''), submitted_at
FROM generation_tasks
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, taskID)
	var task domain.GenerationTask
	if err := row.Scan(
		&task.ID,
		&task.ProviderTaskID,
		&task.Kind,
		&task.Status,
		&task.Prompt,
		&task.ReferenceURL,
		&task.ProjectID,
		&task.ErrorMessage,
		&task.ResultAssetURL,
		&task.SubmittedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
