package status

import (
	"strconv"
	"sync/atomic"
)

// Metric keys shared by the engine and the demo HUD
const (
	KeyTicksFired      = "tick.fired"
	KeyTicksDropped    = "tick.dropped"
	KeyTicksSkipped    = "tick.skipped"
	KeyTickState       = "tick.state"
	KeyTickLagMs       = "tick.lag_ms"
	KeyTickLagPeakMs   = "tick.lag_peak_ms"
	KeyWorldEntities   = "world.entities"
	KeyWorldComponents = "world.components"
)

// StageRunsKey is the counter of completed executions for a stage
func StageRunsKey(stage string) string { return "stage." + stage + ".runs" }

// StageDroppedKey is the counter of overlapping executions rejected by a stage
func StageDroppedKey(stage string) string { return "stage." + stage + ".dropped" }

// Registry is the metrics facade. Components cache pointers at construction
// and write atomics directly on the hot path.
type Registry struct {
	Counters *MetricMap[atomic.Int64]
	Gauges   *MetricMap[AtomicFloat]
	Flags    *MetricMap[atomic.Bool]
	Labels   *MetricMap[AtomicString]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Counters: NewMetricMap[atomic.Int64](),
		Gauges:   NewMetricMap[AtomicFloat](),
		Flags:    NewMetricMap[atomic.Bool](),
		Labels:   NewMetricMap[AtomicString](),
	}
}

// Counter returns the named counter, creating it if needed
func (r *Registry) Counter(name string) *atomic.Int64 { return r.Counters.Get(name) }

// Gauge returns the named gauge, creating it if needed
func (r *Registry) Gauge(name string) *AtomicFloat { return r.Gauges.Get(name) }

// Flag returns the named flag, creating it if needed
func (r *Registry) Flag(name string) *atomic.Bool { return r.Flags.Get(name) }

// Label returns the named label, creating it if needed
func (r *Registry) Label(name string) *AtomicString { return r.Labels.Get(name) }

// Len returns the number of metrics across all kinds
func (r *Registry) Len() int {
	return r.Counters.Len() + r.Gauges.Len() + r.Flags.Len() + r.Labels.Len()
}

// Snapshot renders metrics as strings keyed by name.
// With prefixes, only names starting with one of them are included.
func (r *Registry) Snapshot(prefixes ...string) map[string]string {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	out := make(map[string]string)
	for _, p := range prefixes {
		r.Counters.RangePrefix(p, func(k string, v *atomic.Int64) {
			out[k] = strconv.FormatInt(v.Load(), 10)
		})
		r.Gauges.RangePrefix(p, func(k string, v *AtomicFloat) {
			out[k] = strconv.FormatFloat(v.Get(), 'f', 2, 64)
		})
		r.Flags.RangePrefix(p, func(k string, v *atomic.Bool) {
			out[k] = strconv.FormatBool(v.Load())
		})
		r.Labels.RangePrefix(p, func(k string, v *AtomicString) {
			out[k] = v.Load()
		})
	}
	return out
}
