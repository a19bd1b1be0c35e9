package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/todoshare/internal/model"
)

// PostgresListRepo はPostgreSQLを使用したToDoリストリポジトリ。
type PostgresListRepo struct {
	db *sql.DB
}

// NewPostgresListRepo はPostgresListRepoを生成する。
func NewPostgresListRepo(db *sql.DB) *PostgresListRepo {
	return &PostgresListRepo{db: db}
}

const listColumns = `id, name, user_id, created_at`

// ListAll は全リストをcreated_at昇順で返す。
// created_atが同一の場合はidで順序を安定させる。
func (r *PostgresListRepo) ListAll(ctx context.Context) ([]model.List, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM todo_lists ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("リスト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	lists := []model.List{}
	for rows.Next() {
		var l model.List
		if err := rows.Scan(&l.ID, &l.Name, &l.UserID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("リスト行の読み込みに失敗しました: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リスト一覧の走査に失敗しました: %w", err)
	}
	return lists, nil
}

// FindByID は指定IDのリストを取得する。見つからない場合はnilを返す。
func (r *PostgresListRepo) FindByID(ctx context.Context, id string) (*model.List, error) {
	list, err := scanList(r.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM todo_lists WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	return list, nil
}

// Create はリストを作成し、保存された行を返す。
func (r *PostgresListRepo) Create(ctx context.Context, name, userID string) (*model.List, error) {
	list, err := scanList(r.db.QueryRowContext(ctx,
		`INSERT INTO todo_lists (id, name, user_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+listColumns,
		uuid.New().String(), name, userID, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("リストの作成に失敗しました: %w", err)
	}
	return list, nil
}

// UpdateName はリスト名を更新し、保存された行を返す。見つからない場合はnilを返す。
func (r *PostgresListRepo) UpdateName(ctx context.Context, id, name string) (*model.List, error) {
	list, err := scanList(r.db.QueryRowContext(ctx,
		`UPDATE todo_lists SET name = $2 WHERE id = $1 RETURNING `+listColumns,
		id, name,
	))
	if err != nil {
		return nil, fmt.Errorf("リスト名の更新に失敗しました: %w", err)
	}
	return list, nil
}

// Delete は指定IDのリストを削除する。
// 所属するタスクはtasks.list_idのON DELETE CASCADEで削除される。
func (r *PostgresListRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todo_lists WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("リストの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// scanList は1行をmodel.Listに読み込む。行がない場合はnilを返す。
func scanList(row *sql.Row) (*model.List, error) {
	l := &model.List{}
	err := row.Scan(&l.ID, &l.Name, &l.UserID, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// compile-time interface check
var _ ListRepository = (*PostgresListRepo)(nil)
