// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, todo, import, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidEmail     = "INVALID_EMAIL"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeInvalidColor     = "INVALID_COLOR"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeEmptyName        = "EMPTY_NAME"
	ErrCodeEmptyText        = "EMPTY_TEXT"
	ErrCodeEmptyPatch       = "EMPTY_PATCH"
	ErrCodeListNotFound     = "LIST_NOT_FOUND"
	ErrCodeTaskNotFound     = "TASK_NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInvalidURL       = "INVALID_URL"
	ErrCodeSSRFBlocked      = "SSRF_BLOCKED"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeFeedNotDetected  = "FEED_NOT_DETECTED"
	ErrCodeParseFailed      = "PARSE_FAILED"
	ErrCodeMailDeliveryFail = "MAIL_DELIVERY_FAILED"
)

// NewInvalidEmailError は無効なメールアドレスエラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: "auth",
		Action:   "正しいメールアドレスを入力してください。",
	}
}

// NewInvalidTokenError はログインリンクが無効または期限切れの場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "ログインリンクが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "もう一度ログインリンクを送信してください。",
	}
}

// NewMailDeliveryFailedError はログインリンクのメール送信失敗エラーを生成する。
func NewMailDeliveryFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeMailDeliveryFail,
		Message:  "ログインリンクのメール送信に失敗しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidColorError はパレット外の色が指定された場合のエラーを生成する。
func NewInvalidColorError(color string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidColor,
		Message:  fmt.Sprintf("選択できない色です: %s", color),
		Category: "validation",
		Action:   fmt.Sprintf("次のいずれかの色を指定してください: %v", Palette),
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewEmptyNameError はリスト名が空の場合のエラーを生成する。
func NewEmptyNameError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyName,
		Message:  "リスト名が空です。",
		Category: "validation",
		Action:   "1文字以上のリスト名を入力してください。",
	}
}

// NewEmptyTextError はタスク本文が空の場合のエラーを生成する。
func NewEmptyTextError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyText,
		Message:  "タスクの内容が空です。",
		Category: "validation",
		Action:   "1文字以上のタスク内容を入力してください。",
	}
}

// NewEmptyPatchError は更新対象フィールドが指定されていない場合のエラーを生成する。
func NewEmptyPatchError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyPatch,
		Message:  "更新する項目が指定されていません。",
		Category: "validation",
		Action:   "text または completed を指定してください。",
	}
}

// NewListNotFoundError はリスト未検出エラーを生成する。
func NewListNotFoundError(listID string) *APIError {
	return &APIError{
		Code:     ErrCodeListNotFound,
		Message:  fmt.Sprintf("指定されたリストが見つかりません: %s", listID),
		Category: "todo",
		Action:   "リスト一覧を再読み込みしてください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "todo",
		Action:   "タスク一覧を再読み込みしてください。",
	}
}

// NewForbiddenError は他ユーザーとしての操作を拒否するエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "他のユーザーとしてタスクを作成することはできません。",
		Category: "auth",
		Action:   "ログイン中のユーザー情報を再取得してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました: %s", reason),
		Category: "import",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewFeedNotDetectedError はフィード未検出エラーを生成する。
func NewFeedNotDetectedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotDetected,
		Message:  fmt.Sprintf("指定されたURLからRSS/Atomフィードを検出できませんでした: %s", url),
		Category: "import",
		Action:   "RSS/AtomフィードのURLを直接入力してください。",
	}
}

// NewParseFailedError はパース失敗エラーを生成する。
func NewParseFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  "フィードの解析に失敗しました。",
		Category: "import",
		Action:   "有効なRSS/Atomフィードかどうか確認してください。",
	}
}
