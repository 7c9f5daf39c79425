package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, title, description, status, priority, created_at, updated_at`

const insertTask = `
	INSERT INTO tasks (user_id, title, description, priority, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + taskColumns

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	created, err := scanTask(r.pool.QueryRow(ctx, insertTask,
		userID, t.Title, t.Description, t.Priority, t.Status))
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY id
	`, userID, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	updated, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, priority = $5, status = $6, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		t.ID, userID, t.Title, t.Description, t.Priority, t.Status))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return updated, mapError(err)
}

func (r *TaskRepo) Delete(ctx context.Context, userID, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// CreateIdempotent создает задачу, если ключ еще не использован, иначе
// возвращает задачу, созданную по этому ключу. Параллельный запрос с тем же
// ключом ждет на вставке ключа, пока первая транзакция не завершится.
func (r *TaskRepo) CreateIdempotent(ctx context.Context, userID int64, t model.Task, key string) (model.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return t, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (user_id, key, resource_id) VALUES ($1, $2, 0)
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key)
	if err != nil {
		return t, err
	}

	if tag.RowsAffected() == 0 { // ключ уже использован
		var id int64
		if err := tx.QueryRow(ctx, `
			SELECT resource_id FROM idempotency_keys WHERE user_id = $1 AND key = $2
		`, userID, key).Scan(&id); err != nil {
			return t, err
		}
		existing, err := scanTask(tx.QueryRow(ctx, `
			SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2
		`, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return t, ErrorNotFound
		}
		return existing, err
	}

	created, err := scanTask(tx.QueryRow(ctx, insertTask,
		userID, t.Title, t.Description, t.Priority, t.Status))
	if err != nil {
		return created, mapError(err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE idempotency_keys SET resource_id = $3 WHERE user_id = $1 AND key = $2
	`, userID, key, created.ID); err != nil {
		return created, err
	}
	return created, tx.Commit(ctx)
}

// PurgeIdempotencyKeys удаляет ключи, созданные раньше before.
func (r *TaskRepo) PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM idempotency_keys WHERE created_at < $1", before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *TaskRepo) GetStats(ctx context.Context, userID int64) (model.Stats, error) {
	var st model.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress')
		FROM tasks
		WHERE user_id = $1
	`, userID).Scan(&st.Total, &st.Completed, &st.Pending, &st.InProgress)
	return st, err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique_violation
			return ErrorConflict
		}
	}
	return err
}
