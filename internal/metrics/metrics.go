package metrics

import (
	"context"
	"strconv"
	"time"

	"eventFinder/internal/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "event_finder"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	reg prometheus.Registerer

	admissions       *prometheus.CounterVec
	outbound         *prometheus.CounterVec
	pipelineTotal    *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{reg: reg}

	m.admissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "limiter",
		Name:      "decisions_total",
		Help:      "Limiter admission decisions; allowed=\"false\" are rejections",
	}, []string{"allowed"})
	m.outbound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbound_requests_total",
		Help:      "Outbound HTTP requests by client and status",
	}, []string{"client", "status"})
	m.pipelineTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "invocations_total",
		Help:      "Pipeline invocations by backend and outcome",
	}, []string{"backend", "outcome"})
	m.pipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "Time spent in one pipeline invocation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend"})

	reg.MustRegister(m.admissions, m.outbound, m.pipelineTotal, m.pipelineDuration)

	return m
}

// TrackPermits exposes the limiter's occupancy as gauges read at scrape time.
func (m *Metrics) TrackPermits(capacity, inUse func() int) {
	if m == nil {
		return
	}

	m.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "limiter",
			Name:      "permits_capacity",
			Help:      "Configured number of limiter permits",
		}, func() float64 { return float64(capacity()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "limiter",
			Name:      "permits_in_use",
			Help:      "Limiter permits currently held",
		}, func() float64 { return float64(inUse()) }),
	)
}

// OutboundRequest counts one outbound call. status 0 means the request never got a response.
func (m *Metrics) OutboundRequest(client string, status int) {
	if m == nil {
		return
	}

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.outbound.WithLabelValues(client, label).Inc()
}

func (m *Metrics) PipelineDone(backend, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pipelineTotal.WithLabelValues(backend, outcome).Inc()
	m.pipelineDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// Record makes Metrics usable as a ratelimit.StatsStore.
func (m *Metrics) Record(_ context.Context, ev ratelimit.StatsEvent) error {
	if m == nil {
		return nil
	}

	m.admissions.WithLabelValues(strconv.FormatBool(ev.Allowed)).Inc()

	return nil
}

var _ ratelimit.StatsStore = (*Metrics)(nil)
