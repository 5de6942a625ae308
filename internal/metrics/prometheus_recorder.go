package metrics

import (
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "distbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	hookRuns      *prom.CounterVec
	fileCount     *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of one target version build",
			Buckets:   prom.DefBuckets,
		}, []string{"target", "version"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Version build outcomes by final status",
		}, []string{"target", "outcome"}),
		hookRuns: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hook_runs_total",
			Help:      "Build hook invocations by result",
		}, []string{"hook", "result"}),
		fileCount: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "resolved_files",
			Help:      "Files packed into the most recent artifact of a target",
		}, []string{"target"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.hookRuns, pr.fileCount)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(target, version string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(target, version).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(target string, outcome ResultLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(target, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncHookRun(hook string, result ResultLabel) {
	if p == nil {
		return
	}
	p.hookRuns.WithLabelValues(hook, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveFileCount(target string, n int) {
	if p == nil {
		return
	}
	p.fileCount.WithLabelValues(target).Set(float64(n))
}

// LogGathered logs one line per gathered sample. Histograms are reported by
// sample count and sum.
func LogGathered(logger *slog.Logger, g prom.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			attrs := []any{slog.String("metric", mf.GetName())}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, slog.String(lp.GetName(), lp.GetValue()))
			}
			attrs = append(attrs, sampleAttrs(mf.GetType(), m)...)
			logger.Info("Metric", attrs...)
		}
	}
	return nil
}

func sampleAttrs(t dto.MetricType, m *dto.Metric) []any {
	switch t {
	case dto.MetricType_COUNTER:
		return []any{slog.Float64("value", m.GetCounter().GetValue())}
	case dto.MetricType_GAUGE:
		return []any{slog.Float64("value", m.GetGauge().GetValue())}
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return []any{slog.Uint64("count", h.GetSampleCount()), slog.Float64("sum", h.GetSampleSum())}
	default:
		return nil
	}
}
