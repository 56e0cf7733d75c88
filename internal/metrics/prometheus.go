package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchAttempts *prom.CounterVec
	fetchDuration *prom.HistogramVec
	cycleOutcomes *prom.CounterVec
	installs      prom.Counter
	lastSuccess   prom.Gauge
}

// NewPrometheusRecorder constructs and registers the price metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tibprice",
			Name:      "fetch_attempts_total",
			Help:      "Individual fetch attempts by result",
		}, []string{"result"}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "tibprice",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual fetch attempts",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		cycleOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tibprice",
			Name:      "fetch_cycles_total",
			Help:      "Completed refresh cycles by outcome",
		}, []string{"outcome"}),
		installs: prom.NewCounter(prom.CounterOpts{
			Namespace: "tibprice",
			Name:      "cache_installs_total",
			Help:      "Series installs that replaced the cached value",
		}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: "tibprice",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh cycle",
		}),
	}
	reg.MustRegister(pr.fetchAttempts, pr.fetchDuration, pr.cycleOutcomes, pr.installs, pr.lastSuccess)
	return pr
}

func (p *PrometheusRecorder) IncFetchAttempt(success bool) {
	if p == nil || p.fetchAttempts == nil {
		return
	}
	p.fetchAttempts.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome string) {
	if p == nil || p.cycleOutcomes == nil {
		return
	}
	p.cycleOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncInstall() {
	if p == nil || p.installs == nil {
		return
	}
	p.installs.Inc()
}

func (p *PrometheusRecorder) SetLastSuccess(t time.Time) {
	if p == nil || p.lastSuccess == nil {
		return
	}
	p.lastSuccess.Set(float64(t.Unix()))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// HTTPHandler serves the Prometheus metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
