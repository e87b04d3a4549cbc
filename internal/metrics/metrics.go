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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordVoteOperation(op string)
	SetLiveSessions(n int)
	RecordCleanupPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	voteOps         *prometheus.CounterVec
	liveSessions    prometheus.Gauge
	cleanupPurged   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbsman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bbsman_request_duration_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		voteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbsman_vote_operations_total",
			Help: "投票・ブックマーク操作の種別ごとの合計数",
		}, []string{"op"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bbsman_live_sessions",
			Help: "現在有効なセッション数",
		}),
		cleanupPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bbsman_cleanup_purged_total",
			Help: "クリーンアップで物理削除されたレコードの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.voteOps,
		c.liveSessions,
		c.cleanupPurged,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordVoteOperation は投票・ブックマーク操作を記録する。
// opはupvote、downvote、unvote、bookmark、unbookmarkのいずれか。
func (c *Collector) RecordVoteOperation(op string) {
	c.voteOps.WithLabelValues(op).Inc()
}

// SetLiveSessions は現在有効なセッション数を記録する。
func (c *Collector) SetLiveSessions(n int) {
	c.liveSessions.Set(float64(n))
}

// RecordCleanupPurged は物理削除されたレコード数を記録する。
func (c *Collector) RecordCleanupPurged(count int) {
	c.cleanupPurged.Add(float64(count))
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
