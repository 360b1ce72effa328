package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const Namespace = "omx_deployer"

type TxMetricer interface {
	RecordTxAttempt(op string)
	RecordTxResult(op string, outcome string)
}

type StageMetricer interface {
	RecordStage(name string, dur time.Duration, err error)
}

type Metricer interface {
	TxMetricer
	StageMetricer

	RecordInfo(version string)
	RecordUp()
}

// Outcomes recorded by RecordTxResult.
const (
	OutcomeSuccess   = "success"
	OutcomeMalformed = "malformed"
	OutcomeExhausted = "exhausted"
	OutcomeCanceled  = "canceled"
)

type Metrics struct {
	registry *prometheus.Registry

	info *prometheus.GaugeVec
	up   prometheus.Gauge

	txAttempts *prometheus.CounterVec
	txResults  *prometheus.CounterVec

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(procName string) *Metrics {
	if procName == "" {
		procName = "default"
	}
	ns := Namespace + "_" + procName

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{
			"version",
		}),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "up",
			Help:      "1 if the deployer has finished starting up",
		}),
		txAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tx_attempts_total",
			Help:      "Number of node client invocations, including retries",
		}, []string{
			"op",
		}),
		txResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tx_results_total",
			Help:      "Number of broadcast commands by final outcome",
		}, []string{
			"op",
			"outcome",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{
			"stage",
		}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "stage_failures_total",
			Help:      "Number of failed pipeline stages",
		}, []string{
			"stage",
		}),
	}
	registry.MustRegister(m.info, m.up, m.txAttempts, m.txResults, m.stageDuration, m.stageFailures)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordInfo sets a pseudo-metric that contains versioning and config info.
func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordTxAttempt(op string) {
	m.txAttempts.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordTxResult(op string, outcome string) {
	m.txResults.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) RecordStage(name string, dur time.Duration, err error) {
	m.stageDuration.WithLabelValues(name).Observe(dur.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(name).Inc()
	}
}
