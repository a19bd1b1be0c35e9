package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/todoshare/internal/model"
	"github.com/lib/pq"
)

// foreignKeyViolation はPostgreSQLの外部キー制約違反のエラーコード。
const foreignKeyViolation = "23503"

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `id, list_id, text, completed, user_id, user_email, user_color, created_at`

// ListByList は指定リストのタスクをcreated_at昇順で返す。
func (r *PostgresTaskRepo) ListByList(ctx context.Context, listID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE list_id = $1
		 ORDER BY created_at ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.ListID, &t.Text, &t.Completed,
			&t.UserID, &t.UserEmail, &t.UserColor, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("タスク行の読み込みに失敗しました: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成し、保存された行を返す。completedは常にfalseで作成される。
// リストが存在しない（同時に削除された）場合はnilを返す。
func (r *PostgresTaskRepo) Create(ctx context.Context, listID string, input model.NewTask) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (id, list_id, text, completed, user_id, user_email, user_color, created_at)
		 VALUES ($1, $2, $3, false, $4, $5, $6, $7)
		 RETURNING `+taskColumns,
		uuid.New().String(), listID, input.Text,
		input.UserID, input.UserEmail, input.UserColor,
		time.Now().UTC(),
	))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return task, nil
}

// Update はタスクを部分更新し、保存された行を返す。
// nilフィールドはCOALESCEにより既存の値を維持する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var text sql.NullString
	if patch.Text != nil {
		text = sql.NullString{String: *patch.Text, Valid: true}
	}
	var completed sql.NullBool
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}

	task, err := scanTask(r.db.QueryRowContext(ctx,
		`UPDATE tasks SET
		    text = COALESCE($2, text),
		    completed = COALESCE($3, completed)
		 WHERE id = $1
		 RETURNING `+taskColumns,
		id, text, completed,
	))
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return task, nil
}

// Delete は指定IDのタスクを削除する。削除対象がなかった場合はfalseを返す。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// scanTask は1行をmodel.Taskに読み込む。行がない場合はnilを返す。
func scanTask(row *sql.Row) (*model.Task, error) {
	t := &model.Task{}
	err := row.Scan(
		&t.ID, &t.ListID, &t.Text, &t.Completed,
		&t.UserID, &t.UserEmail, &t.UserColor, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
