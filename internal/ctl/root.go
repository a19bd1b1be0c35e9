// Package ctl はtodoshareのコマンドラインクライアントtodoctlを実装する。
// リストとタスクの操作はlist.Manager、task.Managerを経由してサーバーに反映する。
package ctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/todoshare/internal/client"
	"github.com/hitoshi/todoshare/internal/logger"
	"github.com/hitoshi/todoshare/internal/model"
	"github.com/hitoshi/todoshare/internal/session"
)

// annotationAuth はコマンドが要求する認証状態を示すアノテーションキー。
const annotationAuth = "todoctl/auth"

const (
	// authRequired はログインと表示色の選択を要求する。
	authRequired = "required"
	// authIdentity はログインのみを要求する。
	authIdentity = "identity"
)

var (
	errNotLoggedIn   = errors.New("ログインしていません。`todoctl login <email>` を実行してください")
	errColorRequired = errors.New("表示色の選択が必要です")
)

// env はコマンド実行中に共有する状態。
type env struct {
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger

	configPath string
	server     string

	cfg     *Config
	client  *client.Client
	session *session.Session
}

// Run はtodoctlを実行する。
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root := NewRootCommand(in, out, errOut)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// NewRootCommand はtodoctlのcobraコマンドツリーを返す。
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	level := slog.LevelWarn
	if v := os.Getenv(logger.LevelEnv); v != "" {
		level = logger.ParseLevel(v)
	}
	e := &env{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger.New(errOut, level),
	}

	root := &cobra.Command{
		Use:           "todoctl",
		Short:         "Command-line client for the todoshare shared to-do list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.prepare(cmd)
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default $TODOCTL_CONFIG or ~/.config/todoctl/config.yaml)")
	root.PersistentFlags().StringVar(&e.server, "server", "", "todoshare server URL")

	root.AddCommand(
		e.loginCommand(),
		e.verifyCommand(),
		e.logoutCommand(),
		e.whoamiCommand(),
		e.colorCommand(),
		e.listsCommand(),
		e.listCommand(),
		e.tasksCommand(),
		e.taskCommand(),
		e.importCommand(),
	)
	return root
}

// prepare は設定を読み込み、コマンドが要求する認証状態を確認する。
// 表示色が未選択の場合は操作の前に選択を求める。
func (e *env) prepare(cmd *cobra.Command) error {
	if e.configPath == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		e.configPath = p
	}
	cfg, err := LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	if e.server != "" {
		cfg.Server = e.server
	}
	e.cfg = cfg
	e.client = client.New(cfg.Server, cfg.SessionToken, client.WithLogger(e.logger))
	e.session = session.New(e.client, e.logger)

	mode := cmd.Annotations[annotationAuth]
	if mode == "" {
		return nil
	}
	if cfg.SessionToken == "" {
		return errNotLoggedIn
	}
	if !e.session.Refresh(cmd.Context()) {
		return fmt.Errorf("サーバーに接続できません: %s", cfg.Server)
	}
	if e.session.Identity() == nil {
		return errNotLoggedIn
	}
	if mode == authRequired && e.session.NeedsColor() {
		return e.promptColor(cmd.Context())
	}
	return nil
}

// promptColor はパレットを表示し、選択された色を書き込む。
func (e *env) promptColor(ctx context.Context) error {
	fmt.Fprintln(e.out, "表示色を選択してください:")
	for i, c := range model.Palette {
		fmt.Fprintf(e.out, "  %d) %s\n", i+1, c)
	}

	for {
		fmt.Fprint(e.out, "番号: ")
		line, err := e.in.ReadString('\n')
		color := parseColorChoice(strings.TrimSpace(line))
		if color == "" {
			if err != nil {
				return errColorRequired
			}
			fmt.Fprintln(e.out, "パレットから選択してください。")
			continue
		}
		if !e.session.AssignColor(ctx, color) {
			return errors.New("表示色の設定に失敗しました")
		}
		fmt.Fprintf(e.out, "表示色を %s に設定しました。\n", color)
		return nil
	}
}

// parseColorChoice はパレットの番号または色コードを色に変換する。
// パレット外の場合は空文字列を返す。
func parseColorChoice(s string) string {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(model.Palette) {
			return model.Palette[n-1]
		}
		return ""
	}
	s = strings.ToLower(s)
	if model.IsPaletteColor(s) {
		return s
	}
	return ""
}

// identity はログイン中の識別情報を返す。prepare後にのみ呼び出す。
func (e *env) identity() (*model.Identity, error) {
	ident := e.session.Identity()
	if ident == nil {
		return nil, errNotLoggedIn
	}
	return ident, nil
}

func (e *env) saveToken(ctx context.Context, token string) error {
	e.cfg.SessionToken = token
	return SaveConfig(ctx, e.configPath, e.cfg)
}

func withAuth(cmd *cobra.Command, mode string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	cmd.Annotations[annotationAuth] = mode
	return cmd
}
