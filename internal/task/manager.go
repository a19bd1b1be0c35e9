// Package task は1つのリストに属するタスクのクライアント側集約を管理する。
package task

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/todoshare/internal/model"
)

// Store はタスクのリモート永続化操作。
type Store interface {
	ListTasks(ctx context.Context, listID string) ([]model.Task, error)
	AddTask(ctx context.Context, listID string, input model.NewTask) (*model.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// IdentitySource は現在の識別情報をリモートから取得する。
// 未ログインの場合はnil, nilを返す。
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (*model.Identity, error)
}

// Manager は1つのリストのタスクを作成順で保持する。
// 更新はサーバーの確定応答を受け取ってから反映し、失敗時はWARNログのみ残す。
type Manager struct {
	listID     string
	store      Store
	identities IdentitySource
	logger     *slog.Logger

	mu      sync.Mutex
	tasks   []model.Task
	editing string
}

// NewManager はlistIDのタスクを扱うManagerを生成する。
func NewManager(listID string, store Store, identities IdentitySource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		listID:     listID,
		store:      store,
		identities: identities,
		logger:     logger.With(slog.String("list_id", listID)),
	}
}

// ListID は対象リストのIDを返す。
func (m *Manager) ListID() string {
	return m.listID
}

// Tasks はローカルコレクションのコピーを返す。
func (m *Manager) Tasks() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// LoadAll はリストのタスクを全件取得し、ローカルコレクションを置き換える。
func (m *Manager) LoadAll(ctx context.Context) bool {
	tasks, err := m.store.ListTasks(ctx, m.listID)
	if err != nil {
		m.logger.Warn("failed to load tasks", slog.String("error", err.Error()))
		return false
	}

	m.mu.Lock()
	m.tasks = append([]model.Task(nil), tasks...)
	m.mu.Unlock()
	return true
}

// Add はタスクを追加する。textが空白のみの場合はリモート呼び出しをしない。
// 作成者のメールアドレスと色は、その時点の識別情報を毎回取得して記録する。
func (m *Manager) Add(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	ident, err := m.identities.CurrentIdentity(ctx)
	if err != nil {
		m.logger.Warn("failed to resolve identity", slog.String("error", err.Error()))
		return false
	}
	if ident == nil {
		m.logger.Warn("cannot add task without a signed-in identity")
		return false
	}

	created, err := m.store.AddTask(ctx, m.listID, model.NewTask{
		Text:      text,
		UserID:    ident.ID,
		UserEmail: ident.Email,
		UserColor: model.TaskColorFor(ident.Color),
	})
	if err != nil {
		m.logger.Warn("failed to add task", slog.String("error", err.Error()))
		return false
	}

	m.mu.Lock()
	m.tasks = append(m.tasks, *created)
	m.mu.Unlock()
	return true
}

// Remove はタスクを削除し、成功時にローカルから取り除く。
func (m *Manager) Remove(ctx context.Context, taskID string) bool {
	if err := m.store.DeleteTask(ctx, taskID); err != nil {
		m.logger.Warn("failed to delete task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	filtered := m.tasks[:0]
	for _, t := range m.tasks {
		if t.ID != taskID {
			filtered = append(filtered, t)
		}
	}
	m.tasks = filtered
	if m.editing == taskID {
		m.editing = ""
	}
	return true
}

// ToggleComplete はcompletedを!currentCompletedに更新する。
// ローカルのエントリはサーバーが返した行で置き換えるため、サーバー側の値が優先される。
func (m *Manager) ToggleComplete(ctx context.Context, taskID string, currentCompleted bool) bool {
	completed := !currentCompleted
	return m.update(ctx, taskID, model.TaskPatch{Completed: &completed})
}

// StartEdit はタスクを編集モードにする。編集中の行は1つだけ。
func (m *Manager) StartEdit(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = taskID
}

// Editing はタスクが編集モードかを返す。
func (m *Manager) Editing(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return taskID != "" && m.editing == taskID
}

// CancelEdit は編集モードを抜ける。
func (m *Manager) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = ""
}

// UpdateText はタスクのテキストを更新する。
// newTextが空白のみの場合はリモート呼び出しをせず編集を取り消す。
// 結果にかかわらず編集モードを抜ける。
func (m *Manager) UpdateText(ctx context.Context, taskID, newText string) bool {
	m.CancelEdit()

	newText = strings.TrimSpace(newText)
	if newText == "" {
		return false
	}
	return m.update(ctx, taskID, model.TaskPatch{Text: &newText})
}

func (m *Manager) update(ctx context.Context, taskID string, patch model.TaskPatch) bool {
	updated, err := m.store.UpdateTask(ctx, taskID, patch)
	if err != nil {
		m.logger.Warn("failed to update task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == taskID {
			m.tasks[i] = *updated
			break
		}
	}
	return true
}
