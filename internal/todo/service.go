// Package todo は共有ToDoリストとタスクのドメインロジックを提供する。
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/todoshare/internal/metrics"
	"github.com/hitoshi/todoshare/internal/model"
	"github.com/hitoshi/todoshare/internal/repository"
)

// メトリクスのcollectionラベル
const (
	collectionLists = "todo_lists"
	collectionTasks = "tasks"
)

// Service はリスト・タスク操作のサービス層。
// リストは全認証済みユーザーが閲覧・編集できる。
// リスト名とタスクのテキストは前後の空白を除いてそのまま保存する。
// エスケープは表示側の責務。
type Service struct {
	listRepo repository.ListRepository
	taskRepo repository.TaskRepository
	metrics  metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	listRepo repository.ListRepository,
	taskRepo repository.TaskRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		listRepo: listRepo,
		taskRepo: taskRepo,
		metrics:  collector,
	}
}

// ListLists は全リストをcreated_at昇順で返す。
func (s *Service) ListLists(ctx context.Context) ([]model.List, error) {
	lists, err := s.listRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("リスト一覧の取得に失敗しました: %w", err)
	}
	return lists, nil
}

// CreateList はリストを作成する。所有者はセッションのユーザー。
func (s *Service) CreateList(ctx context.Context, ownerID, name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewEmptyNameError()
	}

	list, err := s.listRepo.Create(ctx, name, ownerID)
	s.record(collectionLists, "insert", err)
	if err != nil {
		return nil, fmt.Errorf("リストの作成に失敗しました: %w", err)
	}

	slog.Info("リストを作成しました",
		slog.String("list_id", list.ID),
		slog.String("user_id", ownerID),
	)
	return list, nil
}

// RenameList はリスト名を変更する。
func (s *Service) RenameList(ctx context.Context, listID, name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewEmptyNameError()
	}

	list, err := s.listRepo.UpdateName(ctx, listID, name)
	s.record(collectionLists, "update", err)
	if err != nil {
		return nil, fmt.Errorf("リスト名の更新に失敗しました: %w", err)
	}
	if list == nil {
		return nil, model.NewListNotFoundError(listID)
	}
	return list, nil
}

// DeleteList はリストを削除する。所属するタスクもストア側で削除される。
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	deleted, err := s.listRepo.Delete(ctx, listID)
	s.record(collectionLists, "delete", err)
	if err != nil {
		return fmt.Errorf("リストの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewListNotFoundError(listID)
	}

	slog.Info("リストを削除しました", slog.String("list_id", listID))
	return nil
}

// ListTasks は指定リストのタスクをcreated_at昇順で返す。
func (s *Service) ListTasks(ctx context.Context, listID string) ([]model.Task, error) {
	if err := s.ensureList(ctx, listID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// AddTask はタスクを作成する。
// input.UserIDはセッションのユーザーと一致しなければならない。
// メールアドレスと色はリクエスト時点のスナップショットをそのまま保存する。
func (s *Service) AddTask(ctx context.Context, sessionUserID, listID string, input model.NewTask) (*model.Task, error) {
	if input.UserID != sessionUserID {
		return nil, model.NewForbiddenError()
	}

	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		return nil, model.NewEmptyTextError()
	}
	input.UserColor = model.TaskColorFor(input.UserColor)

	if err := s.ensureList(ctx, listID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Create(ctx, listID, input)
	s.record(collectionTasks, "insert", err)
	if err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewListNotFoundError(listID)
	}
	return task, nil
}

// UpdateTask はタスクのtextとcompletedを部分更新する。
func (s *Service) UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (*model.Task, error) {
	if patch.IsEmpty() {
		return nil, model.NewEmptyPatchError()
	}
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return nil, model.NewEmptyTextError()
		}
		patch.Text = &text
	}

	task, err := s.taskRepo.Update(ctx, taskID, patch)
	s.record(collectionTasks, "update", err)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// DeleteTask はタスクを削除する。
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	deleted, err := s.taskRepo.Delete(ctx, taskID)
	s.record(collectionTasks, "delete", err)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

func (s *Service) ensureList(ctx context.Context, listID string) error {
	list, err := s.listRepo.FindByID(ctx, listID)
	if err != nil {
		return fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	if list == nil {
		return model.NewListNotFoundError(listID)
	}
	return nil
}

func (s *Service) record(collection, op string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}
	s.metrics.RecordMutation(collection, op, result)
}
