// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はリスト名やタスク本文などのユーザー入力からマークアップを取り除き、
// プレーンテキストとして保存できる形に整える。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Clean はHTMLタグを全て除去し、エンティティを復元して前後の空白を取り除く。
	// 結果が空文字列の場合、入力は「空」として扱われる。
	Clean(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyは全タグを除去し、スレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean はHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyは"&"などをエスケープして返すため、保存前に元の文字へ戻す。
func (s *textSanitizer) Clean(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
