// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/blogman/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordPostCreated(status model.PostStatus)
	RecordPostPublished()
	RecordPostDeleted()
	RecordDraftSaved()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	postsCreated   *prometheus.CounterVec
	postsPublished prometheus.Counter
	postsDeleted   prometheus.Counter
	draftsSaved    prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_posts_created_total",
			Help: "ステータス別の投稿作成の合計数",
		}, []string{"status"}),
		postsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_posts_published_total",
			Help: "投稿公開の合計数",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_posts_deleted_total",
			Help: "投稿削除の合計数",
		}),
		draftsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_drafts_saved_total",
			Help: "サーバー下書き保存の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogman_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.postsCreated,
		c.postsPublished,
		c.postsDeleted,
		c.draftsSaved,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordPostCreated はステータス別の投稿作成を記録する。
func (c *Collector) RecordPostCreated(status model.PostStatus) {
	c.postsCreated.WithLabelValues(string(status)).Inc()
}

// RecordPostPublished は投稿公開を記録する。
func (c *Collector) RecordPostPublished() {
	c.postsPublished.Inc()
}

// RecordPostDeleted は投稿削除を記録する。
func (c *Collector) RecordPostDeleted() {
	c.postsDeleted.Inc()
}

// RecordDraftSaved はサーバー下書き保存を記録する。
func (c *Collector) RecordDraftSaved() {
	c.draftsSaved.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
