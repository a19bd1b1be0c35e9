package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/todoshare/internal/model"
)

// ListServiceInterface はリストハンドラーが必要とするサービスインターフェース。
type ListServiceInterface interface {
	ListLists(ctx context.Context) ([]model.List, error)
	CreateList(ctx context.Context, ownerID, name string) (*model.List, error)
	RenameList(ctx context.Context, listID, name string) (*model.List, error)
	DeleteList(ctx context.Context, listID string) error
}

// ListHandler はToDoリストのHTTPハンドラー。
type ListHandler struct {
	service ListServiceInterface
}

// NewListHandler はListHandlerを生成する。
func NewListHandler(service ListServiceInterface) *ListHandler {
	return &ListHandler{service: service}
}

type listNameRequest struct {
	Name string `json:"name"`
}

// ListLists は全リストを作成順に返す。
// GET /api/lists
func (h *ListHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.service.ListLists(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if lists == nil {
		lists = []model.List{}
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateList はログインユーザーを所有者としてリストを作成する。
// POST /api/lists
func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req model.NewList
	if !decodeJSON(w, r, &req) {
		return
	}
	// 所有者はセッションのユーザーに限る。省略時はセッションのユーザーとする。
	if req.UserID != "" && req.UserID != userID {
		handleServiceError(w, model.NewForbiddenError())
		return
	}

	list, err := h.service.CreateList(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// RenameList はリスト名を変更する。
// PATCH /api/lists/{id}
func (h *ListHandler) RenameList(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	var req listNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	list, err := h.service.RenameList(r.Context(), listID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteList はリストと配下のタスクを削除する。
// DELETE /api/lists/{id}
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteList(r.Context(), listID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
