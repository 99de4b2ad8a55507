package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席ロック試行の総数（result: acquired, conflict, error）
	SeatLocksTotal *prometheus.CounterVec

	// 予約確定の総数（result: confirmed, payment_failed, seats_no_longer_held）
	BookingsTotal *prometheus.CounterVec

	// 決済ゲートウェイ呼び出しのレイテンシ（provider, operation, status）
	GatewayRequestDuration *prometheus.HistogramVec

	// 保持中の座席ロック数
	ActiveSeatLocks prometheus.Gauge

	// 要照合の決済数（決済成功後に座席が失われたケース）
	ReconciliationRequired prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		SeatLocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_locks_total",
				Help: "Total number of seat lock attempts",
			},
			[]string{"result"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking confirmation attempts",
			},
			[]string{"result"},
		),
		GatewayRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_gateway_request_duration_seconds",
				Help:    "Time spent on payment gateway operations",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"provider", "operation", "status"},
		),
		ActiveSeatLocks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_seat_locks",
				Help: "Current number of held seat locks",
			},
		),
		ReconciliationRequired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_reconciliation_required_total",
				Help: "Payments that succeeded after their seat lock was swept",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SeatLocksTotal,
		m.BookingsTotal,
		m.GatewayRequestDuration,
		m.ActiveSeatLocks,
		m.ReconciliationRequired,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
// Init 前に呼ばれた場合は未公開のレジストリで初期化する
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = NewWithRegistry(prometheus.NewRegistry())
	}
	return defaultMetrics
}
