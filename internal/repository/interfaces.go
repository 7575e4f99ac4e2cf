// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/tripnavi/internal/model"
)

// ProfileRepository はプロフィールデータの永続化インターフェース。
// 行の形はスキーマ構造体（model.Profile）に明示的にデコードされ、
// 見つからない場合はエラーではなくnilを返す。読み取り失敗の扱いは呼び出し側が決める。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// Upsert はプロフィールを主キー衝突時上書きで書き込み、保存後の行を返す。
	// joined_atは初回作成時のみ設定され、衝突時は既存値を維持する。
	Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error)

	// List はjoined_at降順のページと全体件数を返す。
	// 件数はlimit/offsetに依存しない。
	List(ctx context.Context, limit, offset int) ([]*model.Profile, int, error)

	// CountAll は全プロフィール数を返す。
	CountAll(ctx context.Context) (int, error)

	// CountJoinedSince はjoined_at >= fromのプロフィール数を返す。
	CountJoinedSince(ctx context.Context, from time.Time) (int, error)

	// CountJoinedBetween はjoined_atが[from, to]（両端含む）のプロフィール数を返す。
	CountJoinedBetween(ctx context.Context, from, to time.Time) (int, error)

	// CountByStatus は指定ロールのプロフィール数を返す。
	CountByStatus(ctx context.Context, status model.ProfileStatus) (int, error)
}

// TripRepository は旅行プランデータの永続化インターフェース。
type TripRepository interface {
	// FindByID は指定IDの旅行プランを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Trip, error)

	// Create は旅行プランを作成する。
	Create(ctx context.Context, trip *model.Trip) error

	// List はcreated_at降順のページと全体件数を返す。
	// 件数はlimit/offsetに依存しない。
	List(ctx context.Context, limit, offset int) ([]*model.Trip, int, error)

	// CountAll は全旅行プラン数を返す。
	CountAll(ctx context.Context) (int, error)

	// CountCreatedSince はcreated_at >= fromの旅行プラン数を返す。
	CountCreatedSince(ctx context.Context, from time.Time) (int, error)

	// CountCreatedBetween はcreated_atが[from, to]（両端含む）の旅行プラン数を返す。
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。identityスナップショットも保存する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
