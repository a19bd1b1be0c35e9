package app

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はクリーンアップワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// NewRootCommand はtodoshareのcobraコマンドツリーを返す。
// サブコマンドなしで起動した場合はserveとして動作する。
func NewRootCommand(w io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "todoshare",
		Short:         "Shared multi-user to-do list server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(w, CommandServe)
		},
	}

	root.AddCommand(
		modeCommand(w, CommandServe, "Run the HTTP API server"),
		modeCommand(w, CommandWorker, "Run the periodic cleanup worker"),
		modeCommand(w, CommandMigrate, "Apply all pending database migrations"),
		&cobra.Command{
			Use:   string(CommandHealthcheck),
			Short: "Probe the local /health endpoint (for container health checks)",
			Args:  cobra.NoArgs,
			// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
			RunE: func(cmd *cobra.Command, args []string) error {
				port := os.Getenv("SERVER_PORT")
				if port == "" {
					port = "8080"
				}
				return runHealthcheck(port)
			},
		},
	)

	return root
}

func modeCommand(w io.Writer, mode Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(w, mode)
		},
	}
}
