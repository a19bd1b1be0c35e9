// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/todoshare/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateColor はユーザーの表示色を更新し、更新後のユーザーを返す。
	// 見つからない場合はnilを返す。
	UpdateColor(ctx context.Context, id, color string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// MagicLinkRepository はログインリンクの永続化インターフェース。
type MagicLinkRepository interface {
	// Create はログインリンクを作成する。
	Create(ctx context.Context, link *model.MagicLink) error

	// ConsumeByTokenHash は未使用かつ有効期限内のリンクを使用済みにして返す。
	// 該当リンクがない場合はnilを返す。同一リンクは1回しか消費できない。
	ConsumeByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.MagicLink, error)
}

// ListRepository はToDoリストの永続化インターフェース。
type ListRepository interface {
	// ListAll は全リストをcreated_at昇順で返す。
	ListAll(ctx context.Context) ([]model.List, error)

	// FindByID は指定IDのリストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.List, error)

	// Create はリストを作成し、保存された行を返す。
	Create(ctx context.Context, name, userID string) (*model.List, error)

	// UpdateName はリスト名を更新し、保存された行を返す。見つからない場合はnilを返す。
	UpdateName(ctx context.Context, id, name string) (*model.List, error)

	// Delete は指定IDのリストを削除する。
	// 所属するタスクはON DELETE CASCADEで削除される。
	// 削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// TaskRepository はタスクの永続化インターフェース。
type TaskRepository interface {
	// ListByList は指定リストのタスクをcreated_at昇順で返す。
	ListByList(ctx context.Context, listID string) ([]model.Task, error)

	// Create はタスクを作成し、保存された行を返す。リストが存在しない場合はnilを返す。
	Create(ctx context.Context, listID string, input model.NewTask) (*model.Task, error)

	// Update はタスクを部分更新し、保存された行を返す。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)

	// Delete は指定IDのタスクを削除する。削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
