package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/tripnavi/internal/metrics"
	"github.com/hitoshi/tripnavi/internal/model"
)

// DashboardServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	// GetStats はユーザーと旅行プランの統計スナップショットを取得する。
	GetStats(ctx context.Context) (*model.StatsSnapshot, error)
	// ListUsers は登録日時降順のユーザーページと全体件数を返す。
	ListUsers(ctx context.Context, limit, offset int) ([]*model.Profile, int, error)
}

// AdminHandler は管理者ダッシュボードのHTTPハンドラー。
type AdminHandler struct {
	dashboard DashboardServiceInterface
	trips     TripServiceInterface
	collector metrics.MetricsCollector
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(dashboard DashboardServiceInterface, trips TripServiceInterface, collector metrics.MetricsCollector) *AdminHandler {
	return &AdminHandler{
		dashboard: dashboard,
		trips:     trips,
		collector: collector,
	}
}

// userListResponse はユーザー一覧のAPIレスポンス。
type userListResponse struct {
	Users []profileResponse `json:"users"`
	Total int               `json:"total"`
}

// GetStats は統計スナップショットを取得する。
// 集計クエリが失敗した場合は全ゼロのスナップショットに劣化させる。
// GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.dashboard.GetStats(r.Context())
	h.collector.RecordStatsLatency(time.Since(start))

	if err != nil {
		slog.Error("failed to collect stats, serving zero snapshot", slog.String("error", err.Error()))
		stats = &model.StatsSnapshot{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ListUsers はユーザー一覧を取得する。
// GET /api/admin/users?limit=20&offset=0
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPaginationError(err.Error()))
		return
	}

	users, total, err := h.dashboard.ListUsers(r.Context(), limit, offset)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			handleServiceError(w, err)
			return
		}
		// リポジトリ障害時は空ページに劣化させる
		slog.Error("failed to list users, serving empty page", slog.String("error", err.Error()))
		users, total = nil, 0
	}

	items := make([]profileResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toProfileResponse(u))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userListResponse{
		Users: items,
		Total: total,
	})
}

// ListTrips は全ユーザーの旅行プラン一覧を取得する。
// GET /api/admin/trips?limit=20&offset=0
func (h *AdminHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPaginationError(err.Error()))
		return
	}

	trips, total, err := h.trips.ListTrips(r.Context(), limit, offset)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			handleServiceError(w, err)
			return
		}
		slog.Error("failed to list trips, serving empty page", slog.String("error", err.Error()))
		trips, total = nil, 0
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripListResponse(trips, total))
}
