package component

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phases recorded when Config.Performance is on.
const (
	PhaseInit    = "init"
	PhaseCompile = "compile"
	PhaseRender  = "render"
	PhasePatch   = "patch"
)

type phaseMetrics struct {
	registry prometheus.Registerer
	duration *prometheus.HistogramVec
}

func newPhaseMetrics(reg prometheus.Registerer) *phaseMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &phaseMetrics{
		registry: reg,
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "viewcore",
				Name:      "component_phase_seconds",
				Help:      "Duration of component lifecycle phases in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"phase"},
		),
	}
	if err := reg.Register(m.duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				m.duration = existing
			}
		}
	}
	return m
}

// mark starts timing phase for vm and returns the function that records it.
// It is a no-op unless performance marks are enabled.
func (vm *Instance) mark(phase string) func() {
	rt := vm.rt
	if !rt.Config.Performance || rt.Config.Production {
		return func() {}
	}
	start := time.Now()
	return func() {
		rt.metrics.duration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}
}

// PhaseHistogram exposes the phase histogram, e.g. for tests and exporters.
func (rt *Runtime) PhaseHistogram() *prometheus.HistogramVec {
	return rt.metrics.duration
}
