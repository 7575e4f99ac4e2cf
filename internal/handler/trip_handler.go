package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tripnavi/internal/metrics"
	"github.com/hitoshi/tripnavi/internal/middleware"
	"github.com/hitoshi/tripnavi/internal/model"
)

const (
	defaultListLimit  = 20
	defaultListOffset = 0
)

// TripServiceInterface は旅行プランハンドラーが必要とするサービスインターフェース。
type TripServiceInterface interface {
	// CreateTrip は旅行条件からプランを生成して保存する。
	CreateTrip(ctx context.Context, userID string, tripReq *model.TripRequest) (*model.Trip, error)
	// GetTrip は指定IDの旅行プランを取得する。
	GetTrip(ctx context.Context, tripID string) (*model.Trip, error)
	// ListTrips は作成日時降順のページと全体件数を返す。
	ListTrips(ctx context.Context, limit, offset int) ([]*model.Trip, int, error)
}

// TripHandler は旅行プラン管理のHTTPハンドラー。
type TripHandler struct {
	service   TripServiceInterface
	collector metrics.MetricsCollector
}

// NewTripHandler はTripHandlerを生成する。
func NewTripHandler(service TripServiceInterface, collector metrics.MetricsCollector) *TripHandler {
	return &TripHandler{
		service:   service,
		collector: collector,
	}
}

// tripResponse は旅行プランのAPIレスポンス。
type tripResponse struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	TripDetails    json.RawMessage `json:"tripDetails"`
	ImageURLs      []string        `json:"imageUrls"`
	Tags           []string        `json:"tags"`
	EstimatedPrice string          `json:"estimatedPrice"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// tripListResponse は旅行プラン一覧のAPIレスポンス。
type tripListResponse struct {
	Trips []tripResponse `json:"trips"`
	Total int            `json:"total"`
}

// CreateTrip は旅行プランの生成を処理する。
// POST /api/trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req model.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidTripRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	start := time.Now()
	trip, err := h.service.CreateTrip(r.Context(), userID, &req)
	h.collector.RecordTripGenerateLatency(time.Since(start))

	if err != nil {
		h.collector.RecordTripGenerateFailure(tripFailureReason(err))
		handleServiceError(w, err)
		return
	}

	h.collector.RecordTripGenerateSuccess()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// GetTrip は旅行プラン詳細を取得する。
// GET /api/trips/:id
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	trip, err := h.service.GetTrip(r.Context(), tripID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// ListTrips は旅行プラン一覧を取得する。
// GET /api/trips?limit=20&offset=0
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPaginationError(err.Error()))
		return
	}

	trips, total, err := h.service.ListTrips(r.Context(), limit, offset)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			handleServiceError(w, err)
			return
		}
		// リポジトリ障害時は空ページに劣化させる
		slog.Error("failed to list trips, serving empty page", slog.String("error", err.Error()))
		trips, total = nil, 0
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripListResponse(trips, total))
}

// toTripResponse はmodel.TripからAPIレスポンスに変換する。
func toTripResponse(trip *model.Trip) tripResponse {
	imageURLs := trip.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	tags := trip.Tags
	if tags == nil {
		tags = []string{}
	}
	return tripResponse{
		ID:             trip.ID,
		UserID:         trip.UserID,
		Name:           trip.Name,
		TripDetails:    trip.TripDetails,
		ImageURLs:      imageURLs,
		Tags:           tags,
		EstimatedPrice: trip.EstimatedPrice,
		CreatedAt:      trip.CreatedAt,
	}
}

// toTripListResponse は一覧レスポンスに変換する。
func toTripListResponse(trips []*model.Trip, total int) tripListResponse {
	items := make([]tripResponse, 0, len(trips))
	for _, trip := range trips {
		items = append(items, toTripResponse(trip))
	}
	return tripListResponse{
		Trips: items,
		Total: total,
	}
}

// parsePagination はクエリパラメータからlimit/offsetを取得する。
// 未指定時はデフォルト値を使用する。範囲検証はサービス層が行う。
func parsePagination(r *http.Request) (int, int, error) {
	limit := defaultListLimit
	offset := defaultListOffset

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("limitが数値ではありません: " + v)
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("offsetが数値ではありません: " + v)
		}
		offset = n
	}

	return limit, offset, nil
}

// tripFailureReason はプラン生成失敗のメトリクス理由ラベルを導出する。
func tripFailureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeInvalidTripRequest:
			return "validation"
		case model.ErrCodeTripGenerateFailed:
			return "generation"
		}
	}
	return "internal"
}
