package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/tripnavi/internal/model"
)

// PostgresTripRepo はPostgreSQLを使用した旅行プランリポジトリ。
type PostgresTripRepo struct {
	db *sql.DB
}

// NewPostgresTripRepo はPostgresTripRepoを生成する。
func NewPostgresTripRepo(db *sql.DB) *PostgresTripRepo {
	return &PostgresTripRepo{db: db}
}

// FindByID は指定IDの旅行プランを取得する。見つからない場合はnilを返す。
func (r *PostgresTripRepo) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	trip := &model.Trip{}
	var imageURLs, tags pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, trip_details, image_urls, tags, estimated_price, created_at
		 FROM trips WHERE id = $1`,
		id,
	).Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.TripDetails, &imageURLs, &tags, &trip.EstimatedPrice, &trip.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find trip by ID: %w", err)
	}

	trip.ImageURLs = imageURLs
	trip.Tags = tags
	return trip, nil
}

// Create は旅行プランを作成する。
func (r *PostgresTripRepo) Create(ctx context.Context, trip *model.Trip) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (id, user_id, name, trip_details, image_urls, tags, estimated_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		trip.ID, trip.UserID, trip.Name, []byte(trip.TripDetails),
		pq.Array(trip.ImageURLs), pq.Array(trip.Tags), trip.EstimatedPrice, trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// List はcreated_at降順のページと全体件数を返す。
func (r *PostgresTripRepo) List(ctx context.Context, limit, offset int) ([]*model.Trip, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, trip_details, image_urls, tags, estimated_price, created_at
		 FROM trips
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*model.Trip
	for rows.Next() {
		t := &model.Trip{}
		var imageURLs, tags pq.StringArray
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.TripDetails, &imageURLs, &tags, &t.EstimatedPrice, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan trip row: %w", err)
		}
		t.ImageURLs = imageURLs
		t.Tags = tags
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate trip rows: %w", err)
	}

	total, err := r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	return trips, total, nil
}

// CountAll は全旅行プラン数を返す。
func (r *PostgresTripRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM trips`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}

// CountCreatedSince はcreated_at >= fromの旅行プラン数を返す。
func (r *PostgresTripRepo) CountCreatedSince(ctx context.Context, from time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM trips WHERE created_at >= $1`,
		from,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips created since: %w", err)
	}
	return count, nil
}

// CountCreatedBetween はcreated_atが[from, to]（両端含む）の旅行プラン数を返す。
func (r *PostgresTripRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM trips WHERE created_at >= $1 AND created_at <= $2`,
		from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips created between: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ TripRepository = (*PostgresTripRepo)(nil)
