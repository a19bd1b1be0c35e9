// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 更新結果ラベル
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordMutation(collection, op, result string)
	RecordMagicLinkSent()
	RecordTasksImported(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	mutations      *prometheus.CounterVec
	magicLinksSent prometheus.Counter
	tasksImported  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoshare_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "todoshare_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoshare_mutations_total",
			Help: "リスト・タスクの更新操作数",
		}, []string{"collection", "op", "result"}),
		magicLinksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoshare_magic_links_sent_total",
			Help: "送信したログインリンクの合計数",
		}),
		tasksImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoshare_tasks_imported_total",
			Help: "フィードから取り込んだタスクの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.mutations,
		c.magicLinksSent,
		c.tasksImported,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordMutation は更新操作を記録する。
// collectionは"todo_lists"または"tasks"、opは"insert"/"update"/"delete"。
func (c *Collector) RecordMutation(collection, op, result string) {
	c.mutations.WithLabelValues(collection, op, result).Inc()
}

// RecordMagicLinkSent はログインリンク送信を記録する。
func (c *Collector) RecordMagicLinkSent() {
	c.magicLinksSent.Inc()
}

// RecordTasksImported は取り込んだタスク数を記録する。
func (c *Collector) RecordTasksImported(count int) {
	c.tasksImported.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストや計測不要な構成で使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int)                  {}
func (NopCollector) RecordRequestLatency(time.Duration)    {}
func (NopCollector) RecordMutation(string, string, string) {}
func (NopCollector) RecordMagicLinkSent()                  {}
func (NopCollector) RecordTasksImported(int)               {}
