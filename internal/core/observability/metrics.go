// Package observability holds the Prometheus collectors shared by the query
// layer and the backing databases.
package observability

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var runLabel atomic.Value

func init() {
	runLabel.Store("default")
}

// SetRun labels every sample with the simulation run name.
func SetRun(s string) {
	if s == "" {
		s = "default"
	}
	runLabel.Store(s)
}

func getRun() string {
	if v := runLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "default"
}

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "env_queries_total",
			Help: "Environment queries by data kind and answering source.",
		},
		[]string{"kind", "source", "run"},
	)

	sedimentResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sediment_resolutions_total",
			Help: "DECK41 cascade outcomes by tier and rule.",
		},
		[]string{"tier", "rule", "run"},
	)

	resultOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "result_cache_op_duration_seconds",
			Help:    "Latency of result cache operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
		[]string{"backend", "op", "status"},
	)

	resultLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_lookups_total",
			Help: "Result cache lookups by outcome.",
		},
		[]string{"backend", "outcome", "run"},
	)

	overrideEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "override_entries",
			Help: "Entries held in each override store.",
		},
		[]string{"kind"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		queriesTotal,
		sedimentResolutions,
		resultOpDurationSeconds,
		resultLookups,
		overrideEntries,
		buildInfo,
	}
}

// Init registers the collectors on reg. Registering twice is harmless.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

const (
	SourceOverride = "override"
	SourceBacking  = "backing"
	SourceMiss     = "miss"
	SourceError    = "error"
)

func ObserveQuery(kind, source string) {
	queriesTotal.WithLabelValues(kind, source, getRun()).Inc()
}

func ObserveSedimentResolution(tier, rule string) {
	sedimentResolutions.WithLabelValues(tier, rule, getRun()).Inc()
}

func ObserveResultOp(backend, op string, err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	resultOpDurationSeconds.WithLabelValues(backend, op, status).Observe(durationSeconds)
}

func IncResultHit(backend string) {
	resultLookups.WithLabelValues(backend, "hit", getRun()).Inc()
}

func IncResultMiss(backend string) {
	resultLookups.WithLabelValues(backend, "miss", getRun()).Inc()
}

func SetOverrideEntries(kind string, n int) {
	overrideEntries.WithLabelValues(kind).Set(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

// ResultLookups exposes the lookup counter of backend for the current run.
func ResultLookups(backend, outcome string) prometheus.Counter {
	return resultLookups.WithLabelValues(backend, outcome, getRun())
}

// Queries exposes the query counter of kind and source for the current run.
func Queries(kind, source string) prometheus.Counter {
	return queriesTotal.WithLabelValues(kind, source, getRun())
}
