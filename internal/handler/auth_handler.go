// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/todoshare/internal/metrics"
	"github.com/hitoshi/todoshare/internal/middleware"
	"github.com/hitoshi/todoshare/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	RequestLink(ctx context.Context, email string) error
	Verify(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログインリンク認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。collectorがnilの場合は計測しない。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &AuthHandler{
		service:   service,
		config:    config,
		collector: collector,
	}
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RequestLink はログインリンクをメール送信する。
// POST /auth/magic-link
func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestLink(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}
	h.collector.RecordMagicLinkSent()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// VerifyRedirect はメール内リンクからのアクセスを処理する。
// 成功時はセッションCookieを設定してフロントエンドへリダイレクトする。
// GET /auth/verify?token=xxx
func (h *AuthHandler) VerifyRedirect(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		slog.Warn("magic link verification failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.config.BaseURL+"/?login_error="+url.QueryEscape(errorCode(err)), http.StatusTemporaryRedirect)
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	http.Redirect(w, r, h.config.BaseURL+"/", http.StatusTemporaryRedirect)
}

// VerifyToken はトークンを検証し、セッショントークンをJSONで返す。
// CLIクライアントはこのトークンをBearerとして使う。
// POST /auth/verify
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Verify(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	writeJSON(w, http.StatusOK, verifyResponse{
		SessionToken: session.ID,
		ExpiresAt:    session.ExpiresAt,
	})
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionTokenFromRequest(r); token != "" {
		// ログアウト失敗してもCookieはクリアする
		if err := h.service.Logout(r.Context(), token); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザーの識別情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionTokenFromRequest(r)
	if token == "" {
		middleware.WriteUnauthorized(w)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), token)
	if err != nil {
		slog.Debug("failed to get current user", slog.String("error", err.Error()))
		middleware.WriteUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, user.ToIdentity())
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// errorCode はリダイレクトのクエリに載せるエラーコードを返す。
func errorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return "INTERNAL_ERROR"
}
