// Package session はクライアント側の認証済み識別情報を保持する。
// 識別情報の変更は購読者に通知される。
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/todoshare/internal/model"
)

// Provider は識別情報の取得と色の書き込みを行うリモート操作。
// 未ログインの場合CurrentIdentityはnil, nilを返す。
type Provider interface {
	CurrentIdentity(ctx context.Context) (*model.Identity, error)
	AssignColor(ctx context.Context, color string) (*model.Identity, error)
}

// Listener は識別情報の変更を受け取る。未ログイン時はnilが渡される。
type Listener func(ident *model.Identity)

// Session は現在の識別情報のスナップショットと購読者を保持する。
type Session struct {
	provider Provider
	logger   *slog.Logger

	mu        sync.Mutex
	identity  *model.Identity
	listeners map[int]Listener
	nextID    int
}

// New はSessionを生成する。
func New(provider Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		provider:  provider,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Identity は識別情報のコピーを返す。未ログインの場合はnil。
func (s *Session) Identity() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIdentity(s.identity)
}

// Subscribe は変更通知の購読を登録し、解除関数を返す。
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Refresh はプロバイダから識別情報を再取得し、購読者に通知する。
func (s *Session) Refresh(ctx context.Context) bool {
	ident, err := s.provider.CurrentIdentity(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh identity", slog.String("error", err.Error()))
		return false
	}
	s.set(ident)
	return true
}

// NeedsColor は識別情報があり、色が未選択の場合にtrueを返す。
func (s *Session) NeedsColor() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil && !s.identity.HasColor()
}

// AssignColor は表示色を1回だけ書き込む。パレット外の色はリモート呼び出しをせず拒否する。
// 失敗時はスナップショットを変更せず、再試行もしない。
func (s *Session) AssignColor(ctx context.Context, color string) bool {
	if !model.IsPaletteColor(color) {
		s.logger.Warn("color is not in the palette", slog.String("color", color))
		return false
	}

	updated, err := s.provider.AssignColor(ctx, color)
	if err != nil {
		s.logger.Warn("failed to assign color",
			slog.String("color", color),
			slog.String("error", err.Error()),
		)
		return false
	}
	s.set(updated)
	return true
}

// Clear はサインアウト時にスナップショットを破棄し、購読者に通知する。
func (s *Session) Clear() {
	s.set(nil)
}

func (s *Session) set(ident *model.Identity) {
	s.mu.Lock()
	s.identity = copyIdentity(ident)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(copyIdentity(ident))
	}
}

func copyIdentity(ident *model.Identity) *model.Identity {
	if ident == nil {
		return nil
	}
	cp := *ident
	return &cp
}
