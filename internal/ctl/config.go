package ctl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigEnv は設定ファイルのパスを上書きする環境変数名。
	ConfigEnv = "TODOCTL_CONFIG"
	// DefaultServer は設定がない場合の接続先。
	DefaultServer = "http://localhost:8080"

	lockTimeout       = 5 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

// Config はtodoctlの接続先と認証情報。
type Config struct {
	Server       string `yaml:"server"`
	SessionToken string `yaml:"session_token,omitempty"`
}

// ConfigPath は設定ファイルのパスを返す。
// TODOCTL_CONFIGが未設定の場合は~/.config/todoctl/config.yaml。
func ConfigPath() (string, error) {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ホームディレクトリの取得に失敗しました: %w", err)
	}
	return filepath.Join(home, ".config", "todoctl", "config.yaml"), nil
}

// LoadConfig は設定ファイルを読み込む。ファイルがない場合は既定値を返す。
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Server: DefaultServer}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパースに失敗しました (%s): %w", path, err)
	}
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	return cfg, nil
}

// SaveConfig は排他ロックを取得して設定ファイルを書き込む。
// セッショントークンを含むためパーミッションは0600。
func SaveConfig(ctx context.Context, path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("設定ディレクトリの作成に失敗しました: %w", err)
	}

	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("設定ファイルのロック取得に失敗しました: %w", err)
	}
	if !locked {
		return fmt.Errorf("設定ファイルがロックされています: %s", path)
	}
	defer lock.Unlock()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("設定のエンコードに失敗しました: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("設定ファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("設定ファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}
