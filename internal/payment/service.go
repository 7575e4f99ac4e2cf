package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hitoshi/tripnavi/internal/model"
	"github.com/hitoshi/tripnavi/internal/repository"
	"github.com/hitoshi/tripnavi/internal/security"
)

// ServiceConfig は決済サービスの設定。
type ServiceConfig struct {
	BaseURL string // 決済完了後のリダイレクト先の組み立てに使用
}

// Service は決済リンクの発行に関するビジネスロジックを提供する。
type Service struct {
	stripe     StripeAPI
	tripRepo   repository.TripRepository
	imageGuard security.ImageGuardService
	config     ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	stripe StripeAPI,
	tripRepo repository.TripRepository,
	imageGuard security.ImageGuardService,
	config ServiceConfig,
) *Service {
	return &Service{
		stripe:     stripe,
		tripRepo:   tripRepo,
		imageGuard: imageGuard,
		config:     config,
	}
}

// IssuePaymentLink は旅行プランの決済リンクを発行する。
// 商品、価格、決済リンクの順にStripeへ作成する。
// 途中で失敗した場合、作成済みのStripeオブジェクトは削除されない
// （Stripe上の商品は無害であり、リトライで新しい一式が作られる）。
func (s *Service) IssuePaymentLink(ctx context.Context, tripID string) (string, error) {
	trip, err := s.tripRepo.FindByID(ctx, tripID)
	if err != nil {
		return "", fmt.Errorf("failed to find trip: %w", err)
	}
	if trip == nil {
		return "", model.NewTripNotFoundError(tripID)
	}

	unitAmount, err := parsePriceToMinorUnits(trip.EstimatedPrice)
	if err != nil {
		return "", model.NewPaymentFailedError(fmt.Sprintf("価格を解釈できません: %s", trip.EstimatedPrice))
	}

	// 外部サービスへ渡す前に画像URLを検証し、危険なURLは除外する
	images := s.filterSafeImages(trip.ImageURLs)

	description := tripDescription(trip)

	productID, err := s.stripe.CreateProduct(ctx, trip.Name, description, images)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	priceID, err := s.stripe.CreatePrice(ctx, productID, unitAmount)
	if err != nil {
		return "", fmt.Errorf("failed to create price: %w", err)
	}

	redirectURL := fmt.Sprintf("%s/travel/%s/success", s.config.BaseURL, tripID)
	linkURL, err := s.stripe.CreatePaymentLink(ctx, priceID, tripID, redirectURL)
	if err != nil {
		return "", fmt.Errorf("failed to create payment link: %w", err)
	}

	slog.Info("payment link issued",
		slog.String("trip_id", tripID),
		slog.String("product_id", productID),
		slog.Int64("unit_amount", unitAmount),
	)

	return linkURL, nil
}

// filterSafeImages は画像URLを検証し、安全なURLのみを返す。
func (s *Service) filterSafeImages(imageURLs []string) []string {
	safe := make([]string, 0, len(imageURLs))
	for _, imageURL := range imageURLs {
		if err := s.imageGuard.ValidateImageURL(imageURL); err != nil {
			slog.Warn("unsafe image URL excluded from payment product",
				slog.String("image_url", imageURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		safe = append(safe, imageURL)
	}
	return safe
}

// tripDescription は保存済みのプラン詳細から商品説明を取り出す。
// 詳細のパースに失敗しても決済リンクの発行は継続する。
func tripDescription(trip *model.Trip) string {
	var details model.TripDetails
	if err := json.Unmarshal(trip.TripDetails, &details); err != nil {
		return ""
	}
	return details.Description
}

// parsePriceToMinorUnits は"$1,200"のような価格表記をUSDのマイナー単位に変換する。
func parsePriceToMinorUnits(price string) (int64, error) {
	var digits strings.Builder
	for _, r := range price {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("no digits in price: %q", price)
	}

	dollars, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}

	return dollars * 100, nil
}
