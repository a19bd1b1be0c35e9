// Package user はユーザーの表示用アイデンティティ管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/todoshare/internal/model"
	"github.com/hitoshi/todoshare/internal/repository"
)

// Service はアイデンティティ取得と表示色の設定を提供するサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetIdentity はユーザーの現在のアイデンティティを返す。
// キャッシュせず、毎回ストアから読み直す。
func (s *Service) GetIdentity(ctx context.Context, userID string) (*model.Identity, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u.ToIdentity(), nil
}

// AssignColor はパレットから選んだ表示色を保存し、更新後のアイデンティティを返す。
// 色の変更は既存タスクのスナップショットには反映されない。
func (s *Service) AssignColor(ctx context.Context, userID, color string) (*model.Identity, error) {
	if !model.IsPaletteColor(color) {
		return nil, model.NewInvalidColorError(color)
	}

	u, err := s.userRepo.UpdateColor(ctx, userID, color)
	if err != nil {
		return nil, fmt.Errorf("表示色の更新に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("表示色を設定しました",
		slog.String("user_id", userID),
		slog.String("color", color),
	)

	return u.ToIdentity(), nil
}
