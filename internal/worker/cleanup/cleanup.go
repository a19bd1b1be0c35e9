// Package cleanup は期限切れの認証データを削除するジョブを提供する。
// 有効期限から保持日数（デフォルト14日）を過ぎたセッションと、
// 期限切れまたは使用済みのログインリンクを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// target は削除対象のテーブルとクエリ。
type target struct {
	table string
	query string
}

var targets = []target{
	{
		table: "sessions",
		query: `DELETE FROM sessions WHERE expires_at < now() - $1::interval`,
	},
	{
		table: "magic_links",
		query: `DELETE FROM magic_links
		        WHERE expires_at < now() - $1::interval
		           OR used_at < now() - $1::interval`,
	},
}

// CleanupJob は期限切れの認証データの自動削除ジョブ。
// 冪等な削除処理で、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 期限切れ後の保持日数（デフォルト: 14）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は14日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 14,
	}
}

// Run は保持期間を過ぎたセッションとログインリンクを削除する。
// 1つのテーブルで失敗した時点で中断し、エラーを返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	interval := fmt.Sprintf("%d days", j.RetentionDays)

	var total int64
	for _, t := range targets {
		result, err := j.db.ExecContext(ctx, t.query, interval)
		if err != nil {
			j.logger.Error("クリーンアップジョブの実行に失敗しました",
				slog.String("table", t.table),
				slog.String("error", err.Error()),
				slog.Int("retention_days", j.RetentionDays),
			)
			return fmt.Errorf("%sのクリーンアップに失敗: %w", t.table, err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%sの削除件数の取得に失敗: %w", t.table, err)
		}
		j.logger.Info("テーブルのクリーンアップが完了しました",
			slog.String("table", t.table),
			slog.Int64("deleted_count", deleted),
		)
		total += deleted
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", total),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、以後intervalごとにRunを繰り返す。
// ctxがキャンセルされるまでブロックする。失敗はログに残して次回に持ち越す。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
