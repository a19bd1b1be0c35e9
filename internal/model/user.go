// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// User はサービス利用ユーザーを表す。
// Colorは未選択の場合は空文字列。
type User struct {
	ID        string
	Email     string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は認証済みユーザーの識別情報を表す。
// クライアントに公開される唯一のユーザー表現。
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Color string `json:"color"`
}

// MarshalJSON は色未選択の場合にcolorをnullとして出力する。
func (i Identity) MarshalJSON() ([]byte, error) {
	var color *string
	if i.Color != "" {
		color = &i.Color
	}
	return json.Marshal(struct {
		ID    string  `json:"id"`
		Email string  `json:"email"`
		Color *string `json:"color"`
	}{ID: i.ID, Email: i.Email, Color: color})
}

// HasColor は表示色が割り当て済みかを返す。
func (i *Identity) HasColor() bool {
	return i != nil && i.Color != ""
}

// ToIdentity はUserからIdentityを生成する。
func (u *User) ToIdentity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Color: u.Color}
}

// MagicLink はメールで送信されるワンタイムログインリンクを表す。
// トークン本体は保存せず、SHA-256ハッシュのみを保持する。
type MagicLink struct {
	ID        string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
