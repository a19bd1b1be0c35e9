// Package list はToDoリスト一覧のクライアント側集約を管理する。
//
// Managerはサーバーの確定応答を受け取ってからローカル状態を更新する。
// リモート呼び出しの失敗はWARNログに残して吸収し、ローカル状態は変更しない。
package list

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/todoshare/internal/model"
)

// Store はリストのリモート永続化操作。
type Store interface {
	ListLists(ctx context.Context) ([]model.List, error)
	CreateList(ctx context.Context, input model.NewList) (*model.List, error)
	RenameList(ctx context.Context, listID, name string) (*model.List, error)
	DeleteList(ctx context.Context, listID string) error
}

// Manager はリスト一覧のローカルコレクションを保持する。
// ミューテックスはローカル状態の読み書きの間だけ保持し、リモート呼び出しをまたがない。
type Manager struct {
	store  Store
	logger *slog.Logger

	mu       sync.Mutex
	lists    []model.List
	renaming map[string]bool
}

// NewManager はManagerを生成する。
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		logger:   logger,
		renaming: make(map[string]bool),
	}
}

// Lists はローカルコレクションのコピーを作成順で返す。
func (m *Manager) Lists() []model.List {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.List, len(m.lists))
	copy(out, m.lists)
	return out
}

// Find はIDに一致するリストを返す。
func (m *Manager) Find(listID string) (model.List, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(listID)
	if i < 0 {
		return model.List{}, false
	}
	return m.lists[i], true
}

// LoadAll は全リストを取得し、ローカルコレクションを置き換える。
func (m *Manager) LoadAll(ctx context.Context) bool {
	lists, err := m.store.ListLists(ctx)
	if err != nil {
		m.logger.Warn("failed to load lists", slog.String("error", err.Error()))
		return false
	}

	m.mu.Lock()
	m.lists = append([]model.List(nil), lists...)
	m.mu.Unlock()
	return true
}

// Create はリストを作成し、サーバーが返した行を末尾に追加する。
// nameが空白のみの場合はリモート呼び出しをせず何もしない。
func (m *Manager) Create(ctx context.Context, name, ownerID string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	created, err := m.store.CreateList(ctx, model.NewList{Name: name, UserID: ownerID})
	if err != nil {
		m.logger.Warn("failed to create list", slog.String("error", err.Error()))
		return false
	}

	m.mu.Lock()
	m.lists = append(m.lists, *created)
	m.mu.Unlock()
	return true
}

// StartRename はリストを名前変更モードにする。
func (m *Manager) StartRename(listID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renaming[listID] = true
}

// Renaming はリストが名前変更モードかを返す。
func (m *Manager) Renaming(listID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renaming[listID]
}

// Rename はリスト名を変更し、サーバーが返した行でローカルのエントリを置き換える。
// newNameが空白のみ、または現在の名前と同じ場合はリモート呼び出しをしない。
// 結果にかかわらず名前変更モードを抜ける。
func (m *Manager) Rename(ctx context.Context, listID, newName string) bool {
	newName = strings.TrimSpace(newName)

	m.mu.Lock()
	delete(m.renaming, listID)
	i := m.indexOf(listID)
	unchanged := i >= 0 && m.lists[i].Name == newName
	m.mu.Unlock()

	if newName == "" || unchanged {
		return false
	}

	renamed, err := m.store.RenameList(ctx, listID, newName)
	if err != nil {
		m.logger.Warn("failed to rename list",
			slog.String("list_id", listID),
			slog.String("error", err.Error()),
		)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(listID); i >= 0 {
		m.lists[i] = *renamed
	}
	return true
}

// Remove はリストを削除し、成功時にそのエントリだけをローカルから取り除く。
// 配下のタスクはストア側で削除される。
func (m *Manager) Remove(ctx context.Context, listID string) bool {
	if err := m.store.DeleteList(ctx, listID); err != nil {
		m.logger.Warn("failed to delete list",
			slog.String("list_id", listID),
			slog.String("error", err.Error()),
		)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(listID); i >= 0 {
		m.lists = append(m.lists[:i], m.lists[i+1:]...)
	}
	delete(m.renaming, listID)
	return true
}

// indexOf はm.muを保持した状態で呼ぶ。
func (m *Manager) indexOf(listID string) int {
	for i := range m.lists {
		if m.lists[i].ID == listID {
			return i
		}
	}
	return -1
}
