// Package model はドメインモデルを定義する。
package model

import "time"

// ProfileStatus はプロフィールのロールを表す。
type ProfileStatus string

const (
	// StatusUser は一般ユーザーロール。
	StatusUser ProfileStatus = "user"
	// StatusAdmin は管理者ロール。
	StatusAdmin ProfileStatus = "admin"
)

// Profile は本システムにおけるユーザーのローカルレコードを表す。
// IDは外部IdPが発行したidentityのIDと同一で、初回サインイン時に
// UPSERTで作成される。identityごとに最大1件の不変条件を持つ。
type Profile struct {
	ID       string
	Email    string
	Name     string
	ImageURL string
	Status   ProfileStatus
	JoinedAt time.Time
}

// IsAdmin はプロフィールが管理者ロールかを返す。
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Status == StatusAdmin
}

// Identity は外部IdPが認証した主体を表す。
// IdP側で作成され、本システムからは読み取り専用。
type Identity struct {
	ID       string // IdPが発行したユーザーID
	Email    string
	Name     string
	ImageURL string
	Provider string // "google" 等
}

// Session はユーザーのログインセッションを表す。
// プロフィール行が欠落していた場合に再UPSERTできるよう、
// 発行時点のidentityスナップショットを保持する。
type Session struct {
	ID        string
	UserID    string
	Identity  Identity
	ExpiresAt time.Time
	CreatedAt time.Time
}
