package observability

import (
	"bytes"
	"testing"
)

func BenchmarkLogger_InfoWithArgs(b *testing.B) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf, InfoLevel)

	b.ReportAllocs()

	for b.Loop() {
		logger.Info("Resolved {ResourceId} {Outcome}", "app.greeting", "match")
	}
}

func BenchmarkLogger_Debug_Filtered(b *testing.B) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf, InfoLevel)

	b.ReportAllocs()

	for b.Loop() {
		logger.Debug("Cache {Kind} {Index}", "condition", 7)
	}
}

func BenchmarkNullLogger(b *testing.B) {
	logger := NewNullLogger()

	b.ReportAllocs()

	for b.Loop() {
		logger.Debug("Cache {Kind} {Index}", "condition", 7)
	}
}
