// Package trip は旅行プランの生成、取得、一覧に関するビジネスロジックを提供する。
package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tripnavi/internal/model"
	"github.com/hitoshi/tripnavi/internal/repository"
	"github.com/hitoshi/tripnavi/internal/security"
)

const (
	// minTripDays と maxTripDays は生成リクエストで許容される日数の範囲。
	minTripDays = 1
	maxTripDays = 10

	// maxListLimit は一覧取得の1ページあたり最大件数。
	maxListLimit = 100
)

// PlanGenerator は旅行プランの生成インターフェース。
type PlanGenerator interface {
	// GenerateTripPlan は旅行条件から旅行プランを生成する。
	GenerateTripPlan(ctx context.Context, tripReq *model.TripRequest) (*model.TripDetails, error)
}

// ImageSearcher は旅行先画像の検索インターフェース。
type ImageSearcher interface {
	// SearchTripImages は検索クエリに合致する画像URLを取得する。
	SearchTripImages(ctx context.Context, query string) ([]string, error)
}

// ServiceConfig は旅行プランサービスの設定。
type ServiceConfig struct {
	GenerateTimeout time.Duration // プラン生成全体のタイムアウト
}

// Service は旅行プランに関するビジネスロジックを提供する。
type Service struct {
	tripRepo   repository.TripRepository
	generator  PlanGenerator
	images     ImageSearcher
	sanitizer  security.TextSanitizerService
	imageGuard security.ImageGuardService
	config     ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	tripRepo repository.TripRepository,
	generator PlanGenerator,
	images ImageSearcher,
	sanitizer security.TextSanitizerService,
	imageGuard security.ImageGuardService,
	config ServiceConfig,
) *Service {
	return &Service{
		tripRepo:   tripRepo,
		generator:  generator,
		images:     images,
		sanitizer:  sanitizer,
		imageGuard: imageGuard,
		config:     config,
	}
}

// CreateTrip は旅行条件からプランを生成して保存する。
// 画像検索の失敗は生成全体を失敗させず、画像なしで保存を継続する。
func (s *Service) CreateTrip(ctx context.Context, userID string, tripReq *model.TripRequest) (*model.Trip, error) {
	if err := validateTripRequest(tripReq); err != nil {
		return nil, err
	}

	if s.config.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.GenerateTimeout)
		defer cancel()
	}

	details, err := s.generator.GenerateTripPlan(ctx, tripReq)
	if err != nil {
		slog.Error("trip plan generation failed",
			slog.String("user_id", userID),
			slog.String("country", tripReq.Country),
			slog.String("error", err.Error()),
		)
		return nil, model.NewTripGenerateFailedError(err.Error())
	}

	s.sanitizeDetails(details)

	imageURLs := s.searchImages(ctx, tripReq)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trip details: %w", err)
	}

	trip := &model.Trip{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           details.Name,
		TripDetails:    detailsJSON,
		ImageURLs:      imageURLs,
		Tags:           []string{details.Interests, details.TravelStyle},
		EstimatedPrice: details.EstimatedPrice,
		CreatedAt:      time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}

	slog.Info("trip created",
		slog.String("trip_id", trip.ID),
		slog.String("user_id", userID),
		slog.String("country", tripReq.Country),
		slog.Int("image_count", len(imageURLs)),
	)

	return trip, nil
}

// GetTrip は指定IDの旅行プランを取得する。
func (s *Service) GetTrip(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.tripRepo.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}
	if trip == nil {
		return nil, model.NewTripNotFoundError(tripID)
	}
	return trip, nil
}

// ListTrips は作成日時降順のページと全体件数を返す。
func (s *Service) ListTrips(ctx context.Context, limit, offset int) ([]*model.Trip, int, error) {
	if err := validatePagination(limit, offset); err != nil {
		return nil, 0, err
	}

	trips, total, err := s.tripRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, total, nil
}

// sanitizeDetails は生成されたプランの全テキストフィールドをサニタイズする。
func (s *Service) sanitizeDetails(details *model.TripDetails) {
	details.Name = s.sanitizer.Sanitize(details.Name)
	details.Description = s.sanitizer.Sanitize(details.Description)
	details.EstimatedPrice = s.sanitizer.Sanitize(details.EstimatedPrice)
	details.Budget = s.sanitizer.Sanitize(details.Budget)
	details.TravelStyle = s.sanitizer.Sanitize(details.TravelStyle)
	details.Country = s.sanitizer.Sanitize(details.Country)
	details.Interests = s.sanitizer.Sanitize(details.Interests)
	details.GroupType = s.sanitizer.Sanitize(details.GroupType)

	for i := range details.BestTimeToVisit {
		details.BestTimeToVisit[i] = s.sanitizer.Sanitize(details.BestTimeToVisit[i])
	}
	for i := range details.WeatherInfo {
		details.WeatherInfo[i] = s.sanitizer.Sanitize(details.WeatherInfo[i])
	}

	details.Location.City = s.sanitizer.Sanitize(details.Location.City)

	for i := range details.Itinerary {
		details.Itinerary[i].Location = s.sanitizer.Sanitize(details.Itinerary[i].Location)
		for j := range details.Itinerary[i].Activities {
			activity := &details.Itinerary[i].Activities[j]
			activity.Time = s.sanitizer.Sanitize(activity.Time)
			activity.Description = s.sanitizer.Sanitize(activity.Description)
		}
	}
}

// searchImages は旅行先の画像URLを検索し、安全なURLのみを返す。
// 検索失敗時は空スライスを返してプラン保存を継続する。
func (s *Service) searchImages(ctx context.Context, tripReq *model.TripRequest) []string {
	query := fmt.Sprintf("%s %s travel", tripReq.Country, tripReq.Interests)

	found, err := s.images.SearchTripImages(ctx, query)
	if err != nil {
		slog.Warn("trip image search failed, saving without images",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return []string{}
	}

	safe := make([]string, 0, len(found))
	for _, imageURL := range found {
		if err := s.imageGuard.ValidateImageURL(imageURL); err != nil {
			slog.Warn("unsafe image URL excluded from trip",
				slog.String("image_url", imageURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		safe = append(safe, imageURL)
	}
	return safe
}

// validateTripRequest は生成リクエストの必須項目と日数範囲を検証する。
func validateTripRequest(tripReq *model.TripRequest) error {
	if tripReq == nil {
		return model.NewInvalidTripRequestError("リクエストが空です")
	}
	if tripReq.Country == "" {
		return model.NewInvalidTripRequestError("国名は必須です")
	}
	if tripReq.NumberOfDays < minTripDays || tripReq.NumberOfDays > maxTripDays {
		return model.NewInvalidTripRequestError(
			fmt.Sprintf("日数は%d〜%dの範囲で指定してください: %d", minTripDays, maxTripDays, tripReq.NumberOfDays))
	}
	if tripReq.TravelStyle == "" {
		return model.NewInvalidTripRequestError("旅行スタイルは必須です")
	}
	if tripReq.Interests == "" {
		return model.NewInvalidTripRequestError("興味・関心は必須です")
	}
	if tripReq.Budget == "" {
		return model.NewInvalidTripRequestError("予算は必須です")
	}
	if tripReq.GroupType == "" {
		return model.NewInvalidTripRequestError("グループ種別は必須です")
	}
	return nil
}

// validatePagination は一覧取得のページネーションパラメータを検証する。
func validatePagination(limit, offset int) error {
	if limit < 1 {
		return model.NewInvalidPaginationError(fmt.Sprintf("limitは1以上を指定してください: %d", limit))
	}
	if limit > maxListLimit {
		return model.NewInvalidPaginationError(fmt.Sprintf("limitは%d以下を指定してください: %d", maxListLimit, limit))
	}
	if offset < 0 {
		return model.NewInvalidPaginationError(fmt.Sprintf("offsetは0以上を指定してください: %d", offset))
	}
	return nil
}
