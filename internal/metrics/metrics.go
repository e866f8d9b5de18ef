package metrics

import (
	"database/sql"
	"time"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mint"

// 铸造结果标签
const (
	OutcomeCompleted   = "completed"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "failed"
	OutcomeCompensated = "compensated"
)

// Metrics 服务指标；nil 接收者上的方法均为空操作
type Metrics struct {
	sagaOutcomes       *prometheus.CounterVec
	sagaDuration       prometheus.Histogram
	compensations      *prometheus.CounterVec
	simulationFailures *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	pollAttempts       prometheus.Histogram
}

// New 在给定 Registerer 上注册指标
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sagaOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Mint claims by outcome.",
		}, []string{"outcome"}),
		sagaDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "claim_duration_seconds",
			Help:      "End-to-end duration of mint claims.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Supply reservation rollbacks by result.",
		}, []string{"result"}),
		simulationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_failures_total",
			Help:      "Failed transaction simulations by pass.",
		}, []string{"pass"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transaction submissions by terminal status.",
		}, []string{"status"}),
		pollAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_poll_attempts",
			Help:      "getTransaction calls needed to reach a terminal status.",
			Buckets:   prometheus.LinearBuckets(1, 5, 12),
		}),
	}
}

// RegisterDBStats 注册连接池指标
func RegisterDBStats(reg prometheus.Registerer, db *sql.DB, name string) error {
	return reg.Register(sqlstats.NewStatsCollector(name, db))
}

func (m *Metrics) ObserveClaim(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sagaOutcomes.WithLabelValues(outcome).Inc()
	m.sagaDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveCompensation(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSimulationFailure(pass string) {
	if m == nil {
		return
	}
	m.simulationFailures.WithLabelValues(pass).Inc()
}

func (m *Metrics) ObserveSubmission(status string, polls int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status).Inc()
	m.pollAttempts.Observe(float64(polls))
}
