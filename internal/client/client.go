// Package client はtodoshare APIのHTTPクライアントを提供する。
// list.Store、task.Store、session.Providerを実装する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/hitoshi/todoshare/internal/feed"
	"github.com/hitoshi/todoshare/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "todoctl/1.0"
	// maxResponseSize はレスポンスボディの読み取り上限。
	maxResponseSize = 4 << 20
)

// Error はAPIが返した非2xxレスポンスを表す。
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Action     string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsUnauthorized は未認証エラーかを判定する。
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// VerifyResult はトークン検証で発行されたセッション。
type VerifyResult struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Client はtodoshare APIのクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option はClientの設定を変更する。
type Option func(*Client)

// WithHTTPClient は使用するhttp.Clientを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger はロガーを差し替える。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New はbaseURLのサーバーに接続するClientを生成する。tokenは空でもよい。
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token は現在のセッショントークンを返す。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken はセッショントークンを設定する。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// --- 認証 ---

// RequestMagicLink はログインリンクのメール送信を要求する。
// 失敗時のメッセージはサーバーが返した文言のまま。
func (c *Client) RequestMagicLink(ctx context.Context, email string) error {
	hc, csrf, err := c.csrfSession(ctx)
	if err != nil {
		return err
	}
	return c.doWith(ctx, hc, http.MethodPost, "/auth/magic-link", map[string]string{"email": email}, nil, csrf)
}

// Verify はメールのトークンを検証し、セッションを発行する。
// 成功時はクライアントのトークンも更新する。
func (c *Client) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	hc, csrf, err := c.csrfSession(ctx)
	if err != nil {
		return nil, err
	}

	var result VerifyResult
	if err := c.doWith(ctx, hc, http.MethodPost, "/auth/verify", map[string]string{"token": token}, &result, csrf); err != nil {
		return nil, err
	}
	c.SetToken(result.SessionToken)
	return &result, nil
}

// Logout はセッションを破棄し、クライアントのトークンを消去する。
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

// CurrentIdentity は現在の識別情報を返す。未ログインの場合はnil, nil。
func (c *Client) CurrentIdentity(ctx context.Context) (*model.Identity, error) {
	if c.Token() == "" {
		return nil, nil
	}

	var ident model.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &ident); err != nil {
		if IsUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	return &ident, nil
}

// AssignColor は表示色を設定し、更新後の識別情報を返す。
func (c *Client) AssignColor(ctx context.Context, color string) (*model.Identity, error) {
	var ident model.Identity
	if err := c.do(ctx, http.MethodPut, "/api/users/me/color", map[string]string{"color": color}, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// --- リスト ---

// ListLists は全リストを作成順に返す。
func (c *Client) ListLists(ctx context.Context) ([]model.List, error) {
	var lists []model.List
	if err := c.do(ctx, http.MethodGet, "/api/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateList はリストを作成する。
func (c *Client) CreateList(ctx context.Context, input model.NewList) (*model.List, error) {
	var list model.List
	if err := c.do(ctx, http.MethodPost, "/api/lists", input, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RenameList はリスト名を変更する。
func (c *Client) RenameList(ctx context.Context, listID, name string) (*model.List, error) {
	var list model.List
	if err := c.do(ctx, http.MethodPatch, "/api/lists/"+url.PathEscape(listID), map[string]string{"name": name}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteList はリストを削除する。
func (c *Client) DeleteList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/api/lists/"+url.PathEscape(listID), nil, nil)
}

// --- タスク ---

// ListTasks はリストのタスクを作成順に返す。
func (c *Client) ListTasks(ctx context.Context, listID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/lists/"+url.PathEscape(listID)+"/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// AddTask はタスクを追加する。
func (c *Client) AddTask(ctx context.Context, listID string, input model.NewTask) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/lists/"+url.PathEscape(listID)+"/tasks", input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask はタスクを部分更新する。
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(taskID), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask はタスクを削除する。
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(taskID), nil, nil)
}

// ImportFeed はフィードのエントリをリストのタスクとして取り込む。
func (c *Client) ImportFeed(ctx context.Context, listID, feedURL string) (*feed.Result, error) {
	var result feed.Result
	if err := c.do(ctx, http.MethodPost, "/api/lists/"+url.PathEscape(listID)+"/import", map[string]string{"url": feedURL}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- 内部処理 ---

// csrfSession はCookieJar付きのhttp.ClientでCSRFトークンを取得する。
// セッション発行前のPOSTはBearerを持たないため、CSRF検証を通す必要がある。
func (c *Client) csrfSession(ctx context.Context) (*http.Client, string, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, "", fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}
	hc := *c.httpClient
	hc.Jar = jar

	var body struct {
		Token string `json:"token"`
	}
	if err := c.doWith(ctx, &hc, http.MethodGet, "/api/csrf-token", nil, &body, ""); err != nil {
		return nil, "", err
	}
	return &hc, body.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doWith(ctx, c.httpClient, method, path, in, out, "")
}

func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, in, out any, csrfToken string) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if csrfToken != "" {
		req.Header.Set("X-CSRF-Token", csrfToken)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, data)
		c.logger.Debug("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) *Error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Action  string `json:"action"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{StatusCode: status, Message: msg}
	}
	return &Error{StatusCode: status, Code: body.Code, Message: body.Message, Action: body.Action}
}
