package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/todoshare/internal/model"
)

// PostgresMagicLinkRepo はPostgreSQLを使用したログインリンクリポジトリ。
type PostgresMagicLinkRepo struct {
	db *sql.DB
}

// NewPostgresMagicLinkRepo はPostgresMagicLinkRepoを生成する。
func NewPostgresMagicLinkRepo(db *sql.DB) *PostgresMagicLinkRepo {
	return &PostgresMagicLinkRepo{db: db}
}

// Create はログインリンクを作成する。
func (r *PostgresMagicLinkRepo) Create(ctx context.Context, link *model.MagicLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO magic_links (id, email, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		link.ID, link.Email, link.TokenHash, link.ExpiresAt, link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create magic link: %w", err)
	}
	return nil
}

// ConsumeByTokenHash は未使用かつ有効期限内のリンクを使用済みにして返す。
// UPDATE ... WHERE used_at IS NULL の1文で行うため、同時に検証されても1回しか成功しない。
func (r *PostgresMagicLinkRepo) ConsumeByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.MagicLink, error) {
	link := &model.MagicLink{}
	var usedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`UPDATE magic_links SET used_at = $2
		 WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		 RETURNING id, email, token_hash, expires_at, used_at, created_at`,
		tokenHash, now,
	).Scan(&link.ID, &link.Email, &link.TokenHash, &link.ExpiresAt, &usedAt, &link.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}

	if usedAt.Valid {
		link.UsedAt = &usedAt.Time
	}
	return link, nil
}

// compile-time interface check
var _ MagicLinkRepository = (*PostgresMagicLinkRepo)(nil)
