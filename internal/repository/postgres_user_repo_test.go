package repository

import (
	"testing"
)

// 各PostgresリポジトリがそれぞれのRepositoryインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ MagicLinkRepository = (*PostgresMagicLinkRepo)(nil)
	var _ ListRepository = (*PostgresListRepo)(nil)
	var _ TaskRepository = (*PostgresTaskRepo)(nil)
}

// コンストラクタがnil DBでも初期化できることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("expected non-nil session repo")
	}
	if NewPostgresMagicLinkRepo(nil) == nil {
		t.Error("expected non-nil magic link repo")
	}
	if NewPostgresListRepo(nil) == nil {
		t.Error("expected non-nil list repo")
	}
	if NewPostgresTaskRepo(nil) == nil {
		t.Error("expected non-nil task repo")
	}
}
