package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/tripnavi/internal/metrics"
	"github.com/hitoshi/tripnavi/internal/model"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	// IssuePaymentLink は旅行プランに対する決済リンクを発行する。
	IssuePaymentLink(ctx context.Context, tripID string) (string, error)
}

// PaymentHandler は決済リンク発行のHTTPハンドラー。
type PaymentHandler struct {
	service   PaymentServiceInterface
	collector metrics.MetricsCollector
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface, collector metrics.MetricsCollector) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		collector: collector,
	}
}

// paymentLinkRequest は決済リンク発行リクエストのボディ。
type paymentLinkRequest struct {
	TripID string `json:"tripId"`
}

// paymentLinkResponse は決済リンク発行のAPIレスポンス。
type paymentLinkResponse struct {
	URL string `json:"url"`
}

// IssuePaymentLink は決済リンクの発行を処理する。
// POST /api/payments/links
func (h *PaymentHandler) IssuePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req paymentLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewPaymentFailedError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.TripID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewPaymentFailedError("tripIdは必須です"))
		return
	}

	url, err := h.service.IssuePaymentLink(r.Context(), req.TripID)
	if err != nil {
		h.collector.RecordPaymentLinkFailure(paymentFailureReason(err))
		handleServiceError(w, err)
		return
	}

	h.collector.RecordPaymentLinkIssued()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(paymentLinkResponse{URL: url})
}

// paymentFailureReason は決済リンク発行失敗のメトリクス理由ラベルを導出する。
func paymentFailureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeTripNotFound:
			return "trip_not_found"
		case model.ErrCodePaymentFailed:
			return "stripe_error"
		}
	}
	return "internal"
}
