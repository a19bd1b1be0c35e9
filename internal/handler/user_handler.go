package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/todoshare/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// AssignColor はパレットの色をユーザーに割り当て、更新後の識別情報を返す。
	AssignColor(ctx context.Context, userID, color string) (*model.Identity, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type assignColorRequest struct {
	Color string `json:"color"`
}

// AssignColor はログインユーザーの表示色を設定する。
// PUT /api/users/me/color
func (h *UserHandler) AssignColor(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req assignColorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ident, err := h.service.AssignColor(r.Context(), userID, req.Color)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ident)
}
