package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriteMetrics(t *testing.T) {
	CandidatesAddedTotal.WithLabelValues(ResultSuccess).Inc()
	ResolverCacheTotal.WithLabelValues("condition", ResultHit).Inc()
	ResolutionsTotal.WithLabelValues("match").Inc()

	var buf bytes.Buffer
	if err := WriteMetrics(&buf); err != nil {
		t.Fatalf("WriteMetrics() failed: %v", err)
	}

	expected := []string{
		"gores_candidates_added_total",
		"gores_resolver_cache_total",
		"gores_resolutions_total",
	}
	for _, metric := range expected {
		if !strings.Contains(buf.String(), metric) {
			t.Errorf("Metrics output missing: %s", metric)
		}
	}
}

func TestGetCounterValue(t *testing.T) {
	before, err := GetCounterValue(CloneTotal, ResultSuccess)
	if err != nil {
		t.Fatalf("GetCounterValue() failed: %v", err)
	}

	CloneTotal.WithLabelValues(ResultSuccess).Inc()
	CloneTotal.WithLabelValues(ResultSuccess).Inc()

	after, err := GetCounterValue(CloneTotal, ResultSuccess)
	if err != nil {
		t.Fatalf("GetCounterValue() failed: %v", err)
	}
	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}

	if _, err := GetCounterValue(CloneTotal, "a", "b"); err == nil {
		t.Error("GetCounterValue with wrong label count should fail")
	}
}

func TestResultLabel(t *testing.T) {
	if got := ResultLabel(nil); got != ResultSuccess {
		t.Errorf("ResultLabel(nil) = %s, want %s", got, ResultSuccess)
	}
	if got := ResultLabel(errors.New("boom")); got != ResultFailure {
		t.Errorf("ResultLabel(err) = %s, want %s", got, ResultFailure)
	}
}

func TestMetricDefinitions(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"ResourcesBuiltTotal", func() { ResourcesBuiltTotal.WithLabelValues(ResultFailure).Inc() }},
		{"DeltaResourcesTotal", func() { DeltaResourcesTotal.WithLabelValues("changed").Inc() }},
		{"BundleLoadDuration", func() { BundleLoadDuration.WithLabelValues("cbor").Observe(0.002) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn()
		})
	}
}
