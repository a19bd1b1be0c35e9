package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/todoshare/internal/metrics"
	"github.com/hitoshi/todoshare/internal/model"
	"github.com/hitoshi/todoshare/internal/security"
	"github.com/mmcdole/gofeed"
)

// URLGuard はインポート先URLの検証とSSRF対策済みクライアントを提供する。
// security.URLGuardを満たす。
type URLGuard interface {
	Check(rawURL string) (*url.URL, error)
	Client() *http.Client
}

// TaskWriter はタスク作成のインターフェース。todo.Serviceが満たす。
type TaskWriter interface {
	AddTask(ctx context.Context, sessionUserID, listID string, input model.NewTask) (*model.Task, error)
}

// Config はImporterの設定。
type Config struct {
	MaxBodySize int64 // レスポンスボディの上限（バイト）
	MaxItems    int   // 1回の取り込みで作成するタスクの上限
}

// Result は取り込み結果を表す。
type Result struct {
	FeedURL   string       `json:"feed_url"`
	FeedTitle string       `json:"feed_title"`
	Tasks     []model.Task `json:"tasks"`
	Skipped   int          `json:"skipped"`
}

// Importer はフィードのエントリをリストのタスクとして取り込む。
type Importer struct {
	guard     URLGuard
	tasks     TaskWriter
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	config    Config
	logger    *slog.Logger
}

// NewImporter はImporterを生成する。
func NewImporter(
	guard URLGuard,
	tasks TaskWriter,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
	config Config,
	logger *slog.Logger,
) *Importer {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 5 * 1024 * 1024
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 50
	}
	return &Importer{
		guard:     guard,
		tasks:     tasks,
		sanitizer: sanitizer,
		metrics:   collector,
		config:    config,
		logger:    logger,
	}
}

// Import はrawURLのフィード（またはHTMLページから検出したフィード）を取得し、
// エントリのタイトルをフィード順にタスクとしてlistIDへ追加する。
// タスクには呼び出し時点のアイデンティティのスナップショットを記録する。
func (im *Importer) Import(ctx context.Context, ident model.Identity, listID, rawURL string) (*Result, error) {
	target, err := im.check(rawURL)
	if err != nil {
		return nil, err
	}

	body, contentType, err := im.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	if !isFeedResponse(contentType, body) {
		if !isHTMLResponse(contentType) {
			return nil, model.NewFeedNotDetectedError(target.String())
		}
		link, ok := pickFeedLink(findFeedLinks(body, target), target)
		if !ok {
			return nil, model.NewFeedNotDetectedError(target.String())
		}
		if target, err = im.check(link.URL); err != nil {
			return nil, err
		}
		if body, _, err = im.fetch(ctx, target); err != nil {
			return nil, err
		}
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		im.logger.Warn("フィードのパースに失敗しました",
			slog.String("feed_url", target.String()),
			slog.String("error", err.Error()),
		)
		return nil, model.NewParseFailedError()
	}

	result := &Result{
		FeedURL:   target.String(),
		FeedTitle: im.sanitizer.Clean(parsed.Title),
		Tasks:     []model.Task{},
	}

	for _, item := range parsed.Items {
		if len(result.Tasks) >= im.config.MaxItems {
			break
		}
		var title string
		if item != nil {
			title = im.sanitizer.Clean(item.Title)
		}
		if title == "" {
			result.Skipped++
			continue
		}

		task, err := im.tasks.AddTask(ctx, ident.ID, listID, model.NewTask{
			Text:      title,
			UserID:    ident.ID,
			UserEmail: ident.Email,
			UserColor: model.TaskColorFor(ident.Color),
		})
		if err != nil {
			im.metrics.RecordTasksImported(len(result.Tasks))
			return nil, err
		}
		result.Tasks = append(result.Tasks, *task)
	}

	im.metrics.RecordTasksImported(len(result.Tasks))
	im.logger.Info("フィードからタスクを取り込みました",
		slog.String("list_id", listID),
		slog.String("user_id", ident.ID),
		slog.String("feed_url", result.FeedURL),
		slog.Int("imported", len(result.Tasks)),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// check はURLGuardで検証し、結果をAPIErrorに変換する。
func (im *Importer) check(rawURL string) (*url.URL, error) {
	u, err := im.guard.Check(rawURL)
	if err == nil {
		return u, nil
	}
	var blocked *security.BlockedError
	if errors.As(err, &blocked) {
		return nil, model.NewSSRFBlockedError()
	}
	return nil, model.NewInvalidURLError(err.Error())
}

// fetch はURLを取得し、上限サイズまでのボディとContent-Typeを返す。
func (im *Importer) fetch(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "todoshare/1.0 (+feed import)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html;q=0.9, */*;q=0.8")

	resp, err := im.guard.Client().Do(req)
	if err != nil {
		im.logger.Warn("フィードの取得に失敗しました",
			slog.String("url", u.String()),
			slog.String("error", err.Error()),
		)
		return nil, "", model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", model.NewFetchFailedError(fmt.Sprintf("HTTPステータス %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, im.config.MaxBodySize))
	if err != nil {
		return nil, "", model.NewFetchFailedError(fmt.Sprintf("レスポンスの読み取りに失敗: %v", err))
	}
	return body, resp.Header.Get("Content-Type"), nil
}
