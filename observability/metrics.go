package observability

import (
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by the counters below.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

var (
	// CandidatesAddedTotal counts candidate additions by result
	CandidatesAddedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gores_candidates_added_total",
			Help: "Total number of resource candidates added by result",
		},
		[]string{"result"}, // success, failure
	)

	// ResourcesBuiltTotal counts resource builds by result
	ResourcesBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gores_resources_built_total",
			Help: "Total number of resource builds by result",
		},
		[]string{"result"},
	)

	// ResolverCacheTotal counts resolver cache lookups by cache and result
	ResolverCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gores_resolver_cache_total",
			Help: "Total number of resolver cache lookups by kind and result",
		},
		[]string{"kind", "result"}, // kind: condition, condition_set, decision, value
	)

	// ResolutionsTotal counts resource resolutions by outcome
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gores_resolutions_total",
			Help: "Total number of resource resolutions by outcome",
		},
		[]string{"outcome"}, // match, default, no_match, error
	)

	// CloneTotal counts manager clones by result
	CloneTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gores_clone_total",
			Help: "Total number of resource manager clones by result",
		},
		[]string{"result"},
	)

	// DeltaResourcesTotal counts delta generation decisions per resource
	DeltaResourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gores_delta_resources_total",
			Help: "Total number of resources examined during delta generation by action",
		},
		[]string{"action"}, // added, changed, unchanged, skipped, failed
	)

	// BundleLoadDuration tracks bundle decode and rebuild time in seconds
	BundleLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gores_bundle_load_duration_seconds",
			Help:    "Bundle load duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"format"},
	)
)

// ResultLabel maps an error to the success/failure label.
func ResultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// WriteMetrics writes every registered metric to w in the Prometheus text format.
func WriteMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// GetCounterValue retrieves the current value of a counter metric with the given labels
// This is primarily intended for testing
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}

	return 0, nil
}
