// Package logger はJSON構造化ログの出力先とレベルを設定する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnv はログレベルを指定する環境変数名。
const LevelEnv = "LOG_LEVEL"

// ParseLevel はdebug/info/warn/errorをslog.Levelに変換する。
// 不明な値はInfoとして扱う。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New は指定レベル以上を出力するJSONロガーを生成する。
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// Setup はInfoレベルのJSONロガーを生成して返す。
func Setup(w io.Writer) *slog.Logger {
	return New(w, slog.LevelInfo)
}

// SetupDefault はJSONロガーをグローバルロガーとして設定する。
// レベルはLOG_LEVELで指定でき、未指定の場合はInfo。
// wがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(New(w, ParseLevel(os.Getenv(LevelEnv))))
}
