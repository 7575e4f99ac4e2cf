// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordTripGenerateSuccess()
	RecordTripGenerateFailure(reason string)
	RecordTripGenerateLatency(duration time.Duration)
	RecordPaymentLinkIssued()
	RecordPaymentLinkFailure(reason string)
	RecordStatsLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	tripGenSuccess  prometheus.Counter
	tripGenFail     *prometheus.CounterVec
	tripGenLatency  prometheus.Histogram
	paymentIssued   prometheus.Counter
	paymentFail     *prometheus.CounterVec
	statsLatency    prometheus.Histogram
	httpStatus      *prometheus.CounterVec
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tripGenSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripnavi_trip_generate_success_total",
			Help: "旅行プラン生成成功の合計数",
		}),
		tripGenFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripnavi_trip_generate_fail_total",
			Help: "旅行プラン生成失敗の合計数（失敗理由別）",
		}, []string{"reason"}),
		tripGenLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripnavi_trip_generate_latency_seconds",
			Help:    "旅行プラン生成のレイテンシ（秒）",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		paymentIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripnavi_payment_link_issued_total",
			Help: "決済リンク発行成功の合計数",
		}),
		paymentFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripnavi_payment_link_fail_total",
			Help: "決済リンク発行失敗の合計数（失敗理由別）",
		}, []string{"reason"}),
		statsLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripnavi_stats_latency_seconds",
			Help:    "統計スナップショット取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripnavi_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripnavi_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.tripGenSuccess,
		c.tripGenFail,
		c.tripGenLatency,
		c.paymentIssued,
		c.paymentFail,
		c.statsLatency,
		c.httpStatus,
		c.sessionsCleaned,
	)

	return c
}

// RecordTripGenerateSuccess は旅行プラン生成の成功を記録する。
func (c *Collector) RecordTripGenerateSuccess() {
	c.tripGenSuccess.Inc()
}

// RecordTripGenerateFailure は旅行プラン生成の失敗を記録する。
func (c *Collector) RecordTripGenerateFailure(reason string) {
	c.tripGenFail.WithLabelValues(reason).Inc()
}

// RecordTripGenerateLatency は旅行プラン生成のレイテンシを記録する。
func (c *Collector) RecordTripGenerateLatency(duration time.Duration) {
	c.tripGenLatency.Observe(duration.Seconds())
}

// RecordPaymentLinkIssued は決済リンク発行の成功を記録する。
func (c *Collector) RecordPaymentLinkIssued() {
	c.paymentIssued.Inc()
}

// RecordPaymentLinkFailure は決済リンク発行の失敗を記録する。
func (c *Collector) RecordPaymentLinkFailure(reason string) {
	c.paymentFail.WithLabelValues(reason).Inc()
}

// RecordStatsLatency は統計スナップショット取得のレイテンシを記録する。
func (c *Collector) RecordStatsLatency(duration time.Duration) {
	c.statsLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
