package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/willibrandon/gores/cmd/gores/output"
	"github.com/willibrandon/gores/cmd/gores/version"
)

func TestGetVersion(t *testing.T) {
	got := GetVersion()
	if got == "" {
		t.Error("GetVersion() returned empty string")
	}
	if got != version.Version {
		t.Errorf("GetVersion() = %v, want %v", got, version.Version)
	}
}

func TestGetFullVersion(t *testing.T) {
	got := GetFullVersion()
	if !strings.HasPrefix(got, "gores version ") {
		t.Errorf("GetFullVersion() = %q, want gores version prefix", got)
	}
}

func TestSetup(t *testing.T) {
	saved := *Options
	t.Cleanup(func() { *Options = saved })

	Options.Verbosity = "detailed"
	Options.Trace = "none"
	if err := setup(context.Background()); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if got := Console.GetVerbosity(); got != output.VerbosityDetailed {
		t.Errorf("verbosity = %v, want %v", got, output.VerbosityDetailed)
	}
	if tracerProvider != nil {
		t.Error("tracing should stay disabled for --trace none")
	}

	Options.Verbosity = "loud"
	if err := setup(context.Background()); err == nil {
		t.Error("setup() should reject an unknown verbosity")
	}
}

func TestLogger(t *testing.T) {
	saved := *Options
	t.Cleanup(func() { *Options = saved })

	Options.LogLevel = "debug"
	if _, err := Logger(); err != nil {
		t.Errorf("Logger() error = %v", err)
	}
	Options.LogLevel = "chatty"
	if _, err := Logger(); err == nil {
		t.Error("Logger() should reject an unknown level")
	}
}
