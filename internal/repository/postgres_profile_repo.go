package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/tripnavi/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, image_url, status, joined_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&profile.ID, &profile.Email, &profile.Name, &profile.ImageURL, &profile.Status, &profile.JoinedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	return profile, nil
}

// Upsert はプロフィールを主キー衝突時上書きで書き込み、保存後の行を返す。
// 衝突時はemail/name/image_url/statusを上書きし、joined_atは既存値を維持する。
// statusの導出は決定的であるため、同一identityへの再UPSERTは冪等になる。
func (r *PostgresProfileRepo) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	stored := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, email, name, image_url, status, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   email = EXCLUDED.email,
		   name = EXCLUDED.name,
		   image_url = EXCLUDED.image_url,
		   status = EXCLUDED.status
		 RETURNING id, email, name, image_url, status, joined_at`,
		profile.ID, profile.Email, profile.Name, profile.ImageURL, profile.Status, profile.JoinedAt,
	).Scan(&stored.ID, &stored.Email, &stored.Name, &stored.ImageURL, &stored.Status, &stored.JoinedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return stored, nil
}

// List はjoined_at降順のページと全体件数を返す。
func (r *PostgresProfileRepo) List(ctx context.Context, limit, offset int) ([]*model.Profile, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, name, image_url, status, joined_at
		 FROM profiles
		 ORDER BY joined_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p := &model.Profile{}
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.ImageURL, &p.Status, &p.JoinedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate profile rows: %w", err)
	}

	total, err := r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// CountAll は全プロフィール数を返す。
func (r *PostgresProfileRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM profiles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// CountJoinedSince はjoined_at >= fromのプロフィール数を返す。
func (r *PostgresProfileRepo) CountJoinedSince(ctx context.Context, from time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM profiles WHERE joined_at >= $1`,
		from,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles joined since: %w", err)
	}
	return count, nil
}

// CountJoinedBetween はjoined_atが[from, to]（両端含む）のプロフィール数を返す。
func (r *PostgresProfileRepo) CountJoinedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM profiles WHERE joined_at >= $1 AND joined_at <= $2`,
		from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles joined between: %w", err)
	}
	return count, nil
}

// CountByStatus は指定ロールのプロフィール数を返す。
func (r *PostgresProfileRepo) CountByStatus(ctx context.Context, status model.ProfileStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM profiles WHERE status = $1`,
		status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles by status: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
