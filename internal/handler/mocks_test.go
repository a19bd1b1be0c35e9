package handler

import (
	"context"
	"time"

	"github.com/hitoshi/todoshare/internal/feed"
	"github.com/hitoshi/todoshare/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	requestLinkFn    func(ctx context.Context, email string) error
	verifyFn         func(ctx context.Context, token string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockAuthService) RequestLink(ctx context.Context, email string) error {
	if m.requestLinkFn != nil {
		return m.requestLinkFn(ctx, email)
	}
	return nil
}

func (m *mockAuthService) Verify(ctx context.Context, token string) (*model.Session, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, token)
	}
	return nil, model.NewInvalidTokenError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockUserService struct {
	assignColorFn func(ctx context.Context, userID, color string) (*model.Identity, error)
}

func (m *mockUserService) AssignColor(ctx context.Context, userID, color string) (*model.Identity, error) {
	if m.assignColorFn != nil {
		return m.assignColorFn(ctx, userID, color)
	}
	return nil, nil
}

type mockListService struct {
	listListsFn  func(ctx context.Context) ([]model.List, error)
	createListFn func(ctx context.Context, ownerID, name string) (*model.List, error)
	renameListFn func(ctx context.Context, listID, name string) (*model.List, error)
	deleteListFn func(ctx context.Context, listID string) error
}

func (m *mockListService) ListLists(ctx context.Context) ([]model.List, error) {
	if m.listListsFn != nil {
		return m.listListsFn(ctx)
	}
	return nil, nil
}

func (m *mockListService) CreateList(ctx context.Context, ownerID, name string) (*model.List, error) {
	if m.createListFn != nil {
		return m.createListFn(ctx, ownerID, name)
	}
	return nil, nil
}

func (m *mockListService) RenameList(ctx context.Context, listID, name string) (*model.List, error) {
	if m.renameListFn != nil {
		return m.renameListFn(ctx, listID, name)
	}
	return nil, nil
}

func (m *mockListService) DeleteList(ctx context.Context, listID string) error {
	if m.deleteListFn != nil {
		return m.deleteListFn(ctx, listID)
	}
	return nil
}

type mockTaskService struct {
	listTasksFn  func(ctx context.Context, listID string) ([]model.Task, error)
	addTaskFn    func(ctx context.Context, sessionUserID, listID string, input model.NewTask) (*model.Task, error)
	updateTaskFn func(ctx context.Context, taskID string, patch model.TaskPatch) (*model.Task, error)
	deleteTaskFn func(ctx context.Context, taskID string) error
}

func (m *mockTaskService) ListTasks(ctx context.Context, listID string) ([]model.Task, error) {
	if m.listTasksFn != nil {
		return m.listTasksFn(ctx, listID)
	}
	return nil, nil
}

func (m *mockTaskService) AddTask(ctx context.Context, sessionUserID, listID string, input model.NewTask) (*model.Task, error) {
	if m.addTaskFn != nil {
		return m.addTaskFn(ctx, sessionUserID, listID, input)
	}
	return nil, nil
}

func (m *mockTaskService) UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (*model.Task, error) {
	if m.updateTaskFn != nil {
		return m.updateTaskFn(ctx, taskID, patch)
	}
	return nil, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, taskID string) error {
	if m.deleteTaskFn != nil {
		return m.deleteTaskFn(ctx, taskID)
	}
	return nil
}

type mockImportService struct {
	importFeedFn func(ctx context.Context, userID, listID, rawURL string) (*feed.Result, error)
}

func (m *mockImportService) ImportFeed(ctx context.Context, userID, listID, rawURL string) (*feed.Result, error) {
	if m.importFeedFn != nil {
		return m.importFeedFn(ctx, userID, listID, rawURL)
	}
	return &feed.Result{}, nil
}

type mockSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

func validSessions() *mockSessionFinder {
	return &mockSessionFinder{
		sessions: map[string]*model.Session{
			"valid-session": {
				ID:        "valid-session",
				UserID:    "user-1",
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
}
