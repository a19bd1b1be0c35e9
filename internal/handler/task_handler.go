package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/todoshare/internal/feed"
	"github.com/hitoshi/todoshare/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	ListTasks(ctx context.Context, listID string) ([]model.Task, error)
	AddTask(ctx context.Context, sessionUserID, listID string, input model.NewTask) (*model.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// ImportServiceInterface はフィード取り込みハンドラーが必要とするサービスインターフェース。
type ImportServiceInterface interface {
	// ImportFeed はログインユーザーの識別情報でフィードのエントリをタスクとして追加する。
	ImportFeed(ctx context.Context, userID, listID, rawURL string) (*feed.Result, error)
}

// TaskHandler はタスクのHTTPハンドラー。
type TaskHandler struct {
	service  TaskServiceInterface
	importer ImportServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, importer ImportServiceInterface) *TaskHandler {
	return &TaskHandler{
		service:  service,
		importer: importer,
	}
}

type importRequest struct {
	URL string `json:"url"`
}

// ListTasks はリストのタスクを作成順に返す。
// GET /api/lists/{id}/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), listID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// AddTask はリストにタスクを追加する。
// POST /api/lists/{id}/tasks
func (h *TaskHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	var input model.NewTask
	if !decodeJSON(w, r, &input) {
		return
	}

	task, err := h.service.AddTask(r.Context(), userID, listID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask はタスクのテキストまたは完了状態を部分更新する。
// PATCH /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var patch model.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), taskID, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportFeed はRSS/Atomフィードのエントリをタスクとして取り込む。
// POST /api/lists/{id}/import
func (h *TaskHandler) ImportFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		handleServiceError(w, model.NewInvalidURLError("URLが空です"))
		return
	}

	result, err := h.importer.ImportFeed(r.Context(), userID, listID, req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
