package ctl

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/todoshare/internal/client"
	"github.com/hitoshi/todoshare/internal/list"
	"github.com/hitoshi/todoshare/internal/model"
	"github.com/hitoshi/todoshare/internal/task"
)

// --- 認証 ---

func (e *env) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Send a sign-in link to the email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.client.RequestMagicLink(cmd.Context(), args[0]); err != nil {
				// サーバーのメッセージをそのまま表示する
				var apiErr *client.Error
				if errors.As(err, &apiErr) {
					return errors.New(apiErr.Message)
				}
				return err
			}
			fmt.Fprintf(e.out, "ログインリンクを %s に送信しました。\n", args[0])
			fmt.Fprintln(e.out, "メールのリンクを開くか、`todoctl verify <token>` を実行してください。")
			return nil
		},
	}
}

func (e *env) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token|link>",
		Short: "Exchange a sign-in token for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := e.client.Verify(cmd.Context(), tokenFromArg(args[0]))
			if err != nil {
				return fmt.Errorf("ログインに失敗しました: %w", err)
			}
			if err := e.saveToken(cmd.Context(), result.SessionToken); err != nil {
				return err
			}
			if !e.session.Refresh(cmd.Context()) || e.session.Identity() == nil {
				return errors.New("識別情報の取得に失敗しました")
			}
			fmt.Fprintf(e.out, "%s としてログインしました。\n", e.session.Identity().Email)
			if e.session.NeedsColor() {
				return e.promptColor(cmd.Context())
			}
			return nil
		},
	}
}

// tokenFromArg はメールのリンクが渡された場合にtokenクエリを取り出す。
func tokenFromArg(arg string) string {
	u, err := url.Parse(arg)
	if err != nil || u.Scheme == "" {
		return arg
	}
	if token := u.Query().Get("token"); token != "" {
		return token
	}
	return arg
}

func (e *env) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.SessionToken != "" {
				if err := e.client.Logout(cmd.Context()); err != nil {
					e.logger.Warn("failed to logout", slog.String("error", err.Error()))
				}
			}
			e.session.Clear()
			if err := e.saveToken(cmd.Context(), ""); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "ログアウトしました。")
			return nil
		},
	}
}

func (e *env) whoamiCommand() *cobra.Command {
	return withAuth(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := e.identity()
			if err != nil {
				return err
			}
			color := ident.Color
			if color == "" {
				color = "(未選択)"
			}
			fmt.Fprintf(e.out, "id:    %s\nemail: %s\ncolor: %s\n", ident.ID, ident.Email, color)
			return nil
		},
	}, authIdentity)
}

func (e *env) colorCommand() *cobra.Command {
	return withAuth(&cobra.Command{
		Use:   "color [value]",
		Short: "Choose the display color from the palette",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return e.promptColor(cmd.Context())
			}
			color := parseColorChoice(args[0])
			if color == "" {
				return fmt.Errorf("パレットにない色です: %s (選択肢: %s)", args[0], strings.Join(model.Palette, " "))
			}
			if !e.session.AssignColor(cmd.Context(), color) {
				return errors.New("表示色の設定に失敗しました")
			}
			fmt.Fprintf(e.out, "表示色を %s に設定しました。\n", color)
			return nil
		},
	}, authIdentity)
}

// --- リスト ---

func (e *env) listManager(cmd *cobra.Command) (*list.Manager, error) {
	m := list.NewManager(e.client, e.logger)
	if !m.LoadAll(cmd.Context()) {
		return nil, errors.New("リストの取得に失敗しました")
	}
	return m, nil
}

func (e *env) listsCommand() *cobra.Command {
	return withAuth(&cobra.Command{
		Use:   "lists",
		Short: "Show all lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.listManager(cmd)
			if err != nil {
				return err
			}
			lists := m.Lists()
			if len(lists) == 0 {
				fmt.Fprintln(e.out, "リストはありません。")
				return nil
			}
			for _, l := range lists {
				fmt.Fprintf(e.out, "%s\t%s\n", l.ID, l.Name)
			}
			return nil
		},
	}, authRequired)
}

func (e *env) listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Create, rename or delete a list",
	}

	create := withAuth(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := e.identity()
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				return errors.New("リスト名を入力してください")
			}
			m := list.NewManager(e.client, e.logger)
			if !m.Create(cmd.Context(), name, ident.ID) {
				return errors.New("リストの作成に失敗しました")
			}
			created := m.Lists()[len(m.Lists())-1]
			fmt.Fprintf(e.out, "%s\t%s\n", created.ID, created.Name)
			return nil
		},
	}, authRequired)

	rename := withAuth(&cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.listManager(cmd)
			if err != nil {
				return err
			}
			listID := args[0]
			current, ok := m.Find(listID)
			if !ok {
				return fmt.Errorf("リストが見つかりません: %s", listID)
			}
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return errors.New("リスト名を入力してください")
			}
			if name == current.Name {
				fmt.Fprintln(e.out, "変更はありません。")
				return nil
			}
			m.StartRename(listID)
			if !m.Rename(cmd.Context(), listID, name) {
				return errors.New("リスト名の変更に失敗しました")
			}
			renamed, _ := m.Find(listID)
			fmt.Fprintf(e.out, "%s\t%s\n", renamed.ID, renamed.Name)
			return nil
		},
	}, authRequired)

	remove := withAuth(&cobra.Command{
		Use:     "rm <list-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a list and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := list.NewManager(e.client, e.logger)
			if !m.Remove(cmd.Context(), args[0]) {
				return errors.New("リストの削除に失敗しました")
			}
			fmt.Fprintf(e.out, "リスト %s を削除しました。\n", args[0])
			return nil
		},
	}, authRequired)

	cmd.AddCommand(create, rename, remove)
	return cmd
}

// --- タスク ---

func (e *env) taskManager(cmd *cobra.Command, listID string, load bool) (*task.Manager, error) {
	m := task.NewManager(listID, e.client, e.client, e.logger)
	if load && !m.LoadAll(cmd.Context()) {
		return nil, fmt.Errorf("リスト %s のタスクの取得に失敗しました", listID)
	}
	return m, nil
}

func findTask(m *task.Manager, taskID string) (model.Task, error) {
	for _, t := range m.Tasks() {
		if t.ID == taskID {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("タスクが見つかりません: %s", taskID)
}

func (e *env) printTask(t model.Task) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	fmt.Fprintf(e.out, "%s\t[%s]\t%s\t%s\n", t.ID, mark, t.Text, t.UserEmail)
}

func (e *env) tasksCommand() *cobra.Command {
	return withAuth(&cobra.Command{
		Use:   "tasks <list-id>",
		Short: "Show the tasks of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.taskManager(cmd, args[0], true)
			if err != nil {
				return err
			}
			tasks := m.Tasks()
			if len(tasks) == 0 {
				fmt.Fprintln(e.out, "タスクはありません。")
				return nil
			}
			for _, t := range tasks {
				e.printTask(t)
			}
			return nil
		},
	}, authRequired)
}

func (e *env) taskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, complete, edit or delete a task",
	}

	add := withAuth(&cobra.Command{
		Use:   "add <list-id> <text>",
		Short: "Add a task to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("タスクを入力してください")
			}
			m, err := e.taskManager(cmd, args[0], false)
			if err != nil {
				return err
			}
			if !m.Add(cmd.Context(), text) {
				return errors.New("タスクの追加に失敗しました")
			}
			tasks := m.Tasks()
			e.printTask(tasks[len(tasks)-1])
			return nil
		},
	}, authRequired)

	done := withAuth(&cobra.Command{
		Use:   "done <list-id> <task-id>",
		Short: "Toggle the completed state of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.taskManager(cmd, args[0], true)
			if err != nil {
				return err
			}
			current, err := findTask(m, args[1])
			if err != nil {
				return err
			}
			if !m.ToggleComplete(cmd.Context(), current.ID, current.Completed) {
				return errors.New("タスクの更新に失敗しました")
			}
			updated, err := findTask(m, current.ID)
			if err != nil {
				return err
			}
			e.printTask(updated)
			return nil
		},
	}, authRequired)

	edit := withAuth(&cobra.Command{
		Use:   "edit <list-id> <task-id> <text>",
		Short: "Change the text of a task",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.taskManager(cmd, args[0], true)
			if err != nil {
				return err
			}
			current, err := findTask(m, args[1])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			if strings.TrimSpace(text) == "" {
				fmt.Fprintln(e.out, "空のテキストのため編集を取り消しました。")
				return nil
			}
			m.StartEdit(current.ID)
			if !m.UpdateText(cmd.Context(), current.ID, text) {
				return errors.New("タスクの更新に失敗しました")
			}
			updated, err := findTask(m, current.ID)
			if err != nil {
				return err
			}
			e.printTask(updated)
			return nil
		},
	}, authRequired)

	remove := withAuth(&cobra.Command{
		Use:     "rm <list-id> <task-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.taskManager(cmd, args[0], false)
			if err != nil {
				return err
			}
			if !m.Remove(cmd.Context(), args[1]) {
				return errors.New("タスクの削除に失敗しました")
			}
			fmt.Fprintf(e.out, "タスク %s を削除しました。\n", args[1])
			return nil
		},
	}, authRequired)

	cmd.AddCommand(add, done, edit, remove)
	return cmd
}

func (e *env) importCommand() *cobra.Command {
	return withAuth(&cobra.Command{
		Use:   "import <list-id> <feed-or-site-url>",
		Short: "Import RSS/Atom entries as tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := e.client.ImportFeed(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("取り込みに失敗しました: %w", err)
			}
			fmt.Fprintf(e.out, "%s から %d件のタスクを取り込みました", result.FeedTitle, len(result.Tasks))
			if result.Skipped > 0 {
				fmt.Fprintf(e.out, " (%d件スキップ)", result.Skipped)
			}
			fmt.Fprintln(e.out, "。")
			for _, t := range result.Tasks {
				e.printTask(t)
			}
			return nil
		},
	}, authRequired)
}
