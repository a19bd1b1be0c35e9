// Package auth はメールリンクによるパスワードレス認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/todoshare/internal/model"
	"github.com/hitoshi/todoshare/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BaseURL       string        // ログインリンクの生成元
	MagicLinkTTL  time.Duration // ログインリンクの有効期間
	SessionMaxAge int           // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	mailer        Mailer
	userRepo      repository.UserRepository
	magicLinkRepo repository.MagicLinkRepository
	sessionRepo   repository.SessionRepository
	config        ServiceConfig
	now           func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	mailer Mailer,
	userRepo repository.UserRepository,
	magicLinkRepo repository.MagicLinkRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		mailer:        mailer,
		userRepo:      userRepo,
		magicLinkRepo: magicLinkRepo,
		sessionRepo:   sessionRepo,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail はメールアドレスの前後空白を除去し小文字化する。
// 形式が不正な場合はINVALID_EMAILのAPIErrorを返す。
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", model.NewInvalidEmailError(strings.TrimSpace(raw))
	}
	return email, nil
}

// RequestLink はログインリンクを発行してメールで送信する。
// DBにはトークンのSHA-256ハッシュのみを保存する。
func (s *Service) RequestLink(ctx context.Context, rawEmail string) error {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate magic link token: %w", err)
	}

	now := s.now()
	link := &model.MagicLink{
		ID:        uuid.New().String(),
		Email:     email,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(s.config.MagicLinkTTL),
		CreatedAt: now,
	}
	if err := s.magicLinkRepo.Create(ctx, link); err != nil {
		return fmt.Errorf("failed to save magic link: %w", err)
	}

	if err := s.mailer.SendMagicLink(ctx, email, s.verifyURL(token)); err != nil {
		slog.Error("failed to send magic link",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return model.NewMailDeliveryFailedError()
	}

	slog.Info("magic link sent", slog.String("email", email))
	return nil
}

// Verify はログインリンクのトークンを消費し、セッションを発行する。
// 初めてのメールアドレスの場合は色未設定のユーザーを作成する。
func (s *Service) Verify(ctx context.Context, token string) (*model.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, model.NewInvalidTokenError()
	}

	link, err := s.magicLinkRepo.ConsumeByTokenHash(ctx, hashToken(token), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}
	if link == nil {
		return nil, model.NewInvalidTokenError()
	}

	user, err := s.userRepo.FindByEmail(ctx, link.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		now := s.now()
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     link.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
		)
	} else {
		slog.Info("existing user logged in", slog.String("user_id", user.ID))
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

func (s *Service) verifyURL(token string) string {
	return s.config.BaseURL + "/auth/verify?token=" + url.QueryEscape(token)
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateToken は暗号的に安全な32バイトのhex文字列を生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
