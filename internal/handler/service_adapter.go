package handler

import (
	"context"

	"github.com/hitoshi/todoshare/internal/feed"
	"github.com/hitoshi/todoshare/internal/model"
)

// IdentityFinder はユーザーIDから識別情報を引く。
type IdentityFinder interface {
	GetIdentity(ctx context.Context, userID string) (*model.Identity, error)
}

// FeedImporter は feed.Importer の取り込み操作。
type FeedImporter interface {
	Import(ctx context.Context, ident model.Identity, listID, rawURL string) (*feed.Result, error)
}

// ImportServiceAdapter は feed.Importer を ImportServiceInterface に適合させるアダプタ。
// 取り込むタスクの作成者スナップショットには、リクエスト時点の識別情報を使う。
type ImportServiceAdapter struct {
	identities IdentityFinder
	importer   FeedImporter
}

// NewImportServiceAdapter はImportServiceAdapterを生成する。
func NewImportServiceAdapter(identities IdentityFinder, importer FeedImporter) *ImportServiceAdapter {
	return &ImportServiceAdapter{identities: identities, importer: importer}
}

// ImportFeed はユーザーの識別情報を解決してから取り込みを実行する。
func (a *ImportServiceAdapter) ImportFeed(ctx context.Context, userID, listID, rawURL string) (*feed.Result, error) {
	ident, err := a.identities.GetIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.importer.Import(ctx, *ident, listID, rawURL)
}

// --- compile-time interface checks ---

var _ ImportServiceInterface = (*ImportServiceAdapter)(nil)
