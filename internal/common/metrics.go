package common

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "portfolio"

// 导入结果标签
const (
	OutcomeSucceeded = "succeeded"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
	OutcomeCached    = "cached"
)

// Metrics 导入流水线的 Prometheus 指标。nil 接收者上的方法均为空操作
type Metrics struct {
	ingestRuns      *prometheus.CounterVec
	ingestDuration  prometheus.Histogram
	upstreamErrors  *prometheus.CounterVec
	recordsUpserted *prometheus.CounterVec
	recordsFailed   *prometheus.CounterVec
	syncShared      prometheus.Counter
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics 在给定 registry 上注册全部指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)

	return &Metrics{
		ingestRuns: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome",
		}, []string{"outcome"}),
		ingestDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall time of ingestion runs that reached GitHub",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		upstreamErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "github",
			Name:      "errors_total",
			Help:      "GitHub API failures by HTTP status (0 for transport errors)",
		}, []string{"status"}),
		recordsUpserted: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "upserts_total",
			Help:      "Derived records written by kind",
		}, []string{"kind"}),
		recordsFailed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "upsert_failures_total",
			Help:      "Derived records that failed to persist by kind",
		}, []string{"kind"}),
		syncShared: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "shared_results_total",
			Help:      "Requests that joined an in-flight ingestion instead of starting one",
		}),
		cacheLookups: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IngestFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ingestRuns.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCached {
		m.ingestDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) UpstreamError(status int) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) RecordsUpserted(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsUpserted.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) RecordFailed(kind string) {
	if m == nil {
		return
	}
	m.recordsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) SyncShared() {
	if m == nil {
		return
	}
	m.syncShared.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
