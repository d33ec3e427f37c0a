// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス記録のインターフェース。サービス層とミドルウェアから利用する。
type Recorder interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordAgreementTransition(transition string)
	RecordRoleEffect(effect string)
	RecordPaymentIntent(outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus           *prometheus.CounterVec
	httpLatency          *prometheus.HistogramVec
	agreementTransitions *prometheus.CounterVec
	roleEffects          *prometheus.CounterVec
	paymentIntents       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propertypulse_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "propertypulse_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		agreementTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propertypulse_agreement_transitions_total",
			Help: "契約の状態遷移数（created, accepted, deleted, duplicate）",
		}, []string{"transition"}),
		roleEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propertypulse_agreement_role_effects_total",
			Help: "契約承認時のrole更新結果別の件数",
		}, []string{"effect"}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propertypulse_payment_intents_total",
			Help: "決済インテント作成の結果別件数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.httpLatency,
		c.agreementTransitions,
		c.roleEffects,
		c.paymentIntents,
	)

	return c
}

// RecordHTTPRequest はHTTPレスポンスのステータスと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAgreementTransition は契約の状態遷移を記録する。
func (c *Collector) RecordAgreementTransition(transition string) {
	c.agreementTransitions.WithLabelValues(transition).Inc()
}

// RecordRoleEffect は契約承認に伴うrole更新の結果を記録する。
func (c *Collector) RecordRoleEffect(effect string) {
	c.roleEffects.WithLabelValues(effect).Inc()
}

// RecordPaymentIntent は決済インテント作成の結果を記録する。
func (c *Collector) RecordPaymentIntent(outcome string) {
	c.paymentIntents.WithLabelValues(outcome).Inc()
}

// Nop は何も記録しないRecorder。メトリクス未設定時に使う。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, int, time.Duration) {}
func (Nop) RecordAgreementTransition(string)             {}
func (Nop) RecordRoleEffect(string)                      {}
func (Nop) RecordPaymentIntent(string)                   {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
