package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics Prometheus instruments for the monitor, on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Ticks         prometheus.Counter
	StaleTicks    prometheus.Counter
	TickErrors    *prometheus.CounterVec // by reason: sensor, panic
	SinkErrors    *prometheus.CounterVec // by sink
	Events        *prometheus.CounterVec // fired timeline events by kind
	HeartRate     prometheus.Gauge
	BreathingRate prometheus.Gauge
	HP            prometheus.Gauge
	Monitoring    prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Name:      "ticks_total",
			Help:      "Ticks that produced a reading.",
		}),
		StaleTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Name:      "stale_ticks_total",
			Help:      "Tick callbacks dropped because monitoring was stopped or restarted.",
		}),
		TickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Name:      "tick_errors_total",
			Help:      "Ticks whose publication was skipped.",
		}, []string{"reason"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Name:      "sink_errors_total",
			Help:      "Failed publications per sink.",
		}, []string{"sink"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Name:      "timeline_events_total",
			Help:      "Timeline events fired.",
		}, []string{"kind"}),
		HeartRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitalsim",
			Name:      "heart_rate_bpm",
			Help:      "Last heart rate.",
		}),
		BreathingRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitalsim",
			Name:      "breathing_rate_bpm",
			Help:      "Last breathing rate.",
		}),
		HP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitalsim",
			Name:      "hp",
			Help:      "Current HP gauge value.",
		}),
		Monitoring: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitalsim",
			Name:      "monitoring",
			Help:      "1 while the tick is installed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Ticks, m.StaleTicks, m.TickErrors, m.SinkErrors, m.Events,
		m.HeartRate, m.BreathingRate, m.HP, m.Monitoring,
	)
	return m
}

// Registry the gatherer to expose over HTTP
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
