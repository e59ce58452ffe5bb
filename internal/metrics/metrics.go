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
// 配信処理やサービス層から利用する。
type MetricsCollector interface {
	RecordMailSent()
	RecordMailFailure()
	RecordBroadcast(sent, failed int)
	RecordSubscription(event string)
	RecordHTTPStatus(statusCode int)
	RecordBroadcastLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	mailSent         prometheus.Counter
	mailFail         prometheus.Counter
	broadcasts       prometheus.Counter
	broadcastSent    prometheus.Counter
	broadcastFailed  prometheus.Counter
	subscriptions    *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	broadcastLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mailSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_mail_sent_total",
			Help: "送信に成功したメールの合計数",
		}),
		mailFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_mail_fail_total",
			Help: "送信に失敗したメールの合計数",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_broadcast_total",
			Help: "実行されたニュース配信の合計数",
		}),
		broadcastSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_broadcast_sent_total",
			Help: "ニュース配信で送信に成功した宛先の合計数",
		}),
		broadcastFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsroom_broadcast_failed_total",
			Help: "ニュース配信で送信に失敗した宛先の合計数",
		}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsroom_subscription_events_total",
			Help: "購読イベント（subscribe/confirm/unsubscribe）の合計数",
		}, []string{"event"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsroom_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		broadcastLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsroom_broadcast_latency_seconds",
			Help:    "ニュース配信全体のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.mailSent,
		c.mailFail,
		c.broadcasts,
		c.broadcastSent,
		c.broadcastFailed,
		c.subscriptions,
		c.httpStatus,
		c.broadcastLatency,
	)

	return c
}

// RecordMailSent はメール送信成功を記録する。
func (c *Collector) RecordMailSent() {
	c.mailSent.Inc()
}

// RecordMailFailure はメール送信失敗を記録する。
func (c *Collector) RecordMailFailure() {
	c.mailFail.Inc()
}

// RecordBroadcast はニュース配信1回の結果を記録する。
func (c *Collector) RecordBroadcast(sent, failed int) {
	c.broadcasts.Inc()
	c.broadcastSent.Add(float64(sent))
	c.broadcastFailed.Add(float64(failed))
}

// RecordSubscription は購読イベントを記録する。
// eventは "subscribe"、"confirm"、"unsubscribe" のいずれか。
func (c *Collector) RecordSubscription(event string) {
	c.subscriptions.WithLabelValues(event).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordBroadcastLatency はニュース配信のレイテンシを記録する。
func (c *Collector) RecordBroadcastLatency(duration time.Duration) {
	c.broadcastLatency.Observe(duration.Seconds())
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
