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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordSignup()
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordMovieCreated()
	RecordMovieUpdated()
	RecordMovieDeleted()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups        prometheus.Counter
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
	moviesCreated  prometheus.Counter
	moviesUpdated  prometheus.Counter
	moviesDeleted  prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filmlog_signups_total",
			Help: "新規ユーザー登録の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filmlog_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filmlog_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		moviesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filmlog_movies_created_total",
			Help: "登録された映画の合計数",
		}),
		moviesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filmlog_movies_updated_total",
			Help: "更新された映画の合計数",
		}),
		moviesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filmlog_movies_deleted_total",
			Help: "削除された映画の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filmlog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "filmlog_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signups,
		c.loginSuccess,
		c.loginFail,
		c.moviesCreated,
		c.moviesUpdated,
		c.moviesDeleted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSignup は新規ユーザー登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordMovieCreated は映画の登録を記録する。
func (c *Collector) RecordMovieCreated() {
	c.moviesCreated.Inc()
}

// RecordMovieUpdated は映画の更新を記録する。
func (c *Collector) RecordMovieUpdated() {
	c.moviesUpdated.Inc()
}

// RecordMovieDeleted は映画の削除を記録する。
func (c *Collector) RecordMovieDeleted() {
	c.moviesDeleted.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
