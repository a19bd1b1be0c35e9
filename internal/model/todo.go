package model

import "time"

// List は共有ToDoリストを表す。
// 全ての認証済みユーザーが閲覧・編集できる。
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Task はリストに属する1件のタスクを表す。
// UserEmail、UserColorは作成時点のスナップショットで、以後更新されない。
type Task struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	UserColor string    `json:"user_color"`
	CreatedAt time.Time `json:"created_at"`
}

// NewList はリスト作成時の入力を表す。UserIDは所有者。
type NewList struct {
	Name   string `json:"name"`
	UserID string `json:"user_id"`
}

// NewTask はタスク作成時の入力を表す。
type NewTask struct {
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	UserColor string `json:"user_color"`
}

// TaskPatch はタスクの部分更新を表す。nilのフィールドは変更しない。
type TaskPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}
