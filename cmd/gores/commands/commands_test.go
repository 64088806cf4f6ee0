package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gores/cmd/gores/output"
)

const baselineJSON = `{
  "resources": [
    {"id": "app.greeting", "candidates": [
      {"json": {"text": "Hello"}},
      {"json": {"text": "Bonjour"}, "conditions": {"language": "fr"}}
    ]}
  ],
  "candidates": [
    {"id": "app.limits", "json": {"max": 10, "min": 1}},
    {"id": "app.limits", "json": {"max": 50}, "conditions": {"env": "prod"}, "isPartial": true}
  ]
}`

const deltaYAML = `
resources:
  - id: app.greeting
    candidates:
      - json: {text: Hi}
  - id: app.limits
    candidates:
      - json: {max: 10, min: 1}
  - id: app.banner
    candidates:
      - json: {text: new}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, newCmd func(*output.Console) *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	console := output.NewConsole(&out, &errOut, output.VerbosityNormal)
	console.SetColors(false)
	cmd := newCmd(console)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "strings.json", baselineJSON)
	bad := writeFile(t, dir, "bad.json", `{"candidates": [{"id": "app.x", "json": {"v": 1}, "conditions": {"device": "phone"}}]}`)

	t.Run("valid", func(t *testing.T) {
		out, _, err := run(t, NewValidateCommand, "--resources", good)
		if err != nil {
			t.Fatalf("validate error = %v", err)
		}
		if !strings.Contains(out, "2 resources, 4 candidates") {
			t.Errorf("unexpected summary: %s", out)
		}
		if !strings.Contains(out, "Valid") {
			t.Errorf("missing success line: %s", out)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		out, _, err := run(t, NewValidateCommand, "--resources", good, "--resources", bad, "--json")
		if err == nil {
			t.Fatal("validate should fail for an unknown qualifier")
		}
		var report output.ValidateOutput
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, out)
		}
		if len(report.Errors) == 0 {
			t.Error("report has no errors")
		}
		if report.Resources != 2 {
			t.Errorf("resources = %d, want 2", report.Resources)
		}
	})

	t.Run("needs resources", func(t *testing.T) {
		if _, _, err := run(t, NewValidateCommand); err == nil {
			t.Error("validate without --resources or --bundle should fail")
		}
	})
}

func TestCompileAndResolve(t *testing.T) {
	dir := t.TempDir()
	resources := writeFile(t, dir, "strings.json", baselineJSON)
	bundlePath := filepath.Join(dir, "strings.bundle")

	out, _, err := run(t, NewCompileCommand,
		"--resources", resources, "--out", bundlePath, "--format", "cbor", "--compression", "zstd")
	if err != nil {
		t.Fatalf("compile error = %v", err)
	}
	if !strings.Contains(out, "Compiled 2 resources") {
		t.Errorf("unexpected compile output: %s", out)
	}

	tests := []struct {
		name    string
		args    []string
		id      string
		wantKey string
		want    any
	}{
		{"bundle similar language", []string{"--bundle", bundlePath, "--context", "language=fr-CA"}, "app.greeting", "text", "Bonjour"},
		{"bundle default", []string{"--bundle", bundlePath}, "app.greeting", "text", "Hello"},
		{"files composed", []string{"--resources", resources, "--context", "env=prod"}, "app.limits", "max", 50.0},
		{"context list", []string{"--resources", resources, "--context", "language=de,fr"}, "app.greeting", "text", "Bonjour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--id", tt.id, "--json")
			out, _, err := run(t, NewResolveCommand, args...)
			if err != nil {
				t.Fatalf("resolve error = %v", err)
			}
			var result output.ResolveOutput
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("invalid JSON output: %v\n%s", err, out)
			}
			if len(result.Resources) != 1 {
				t.Fatalf("resources = %d, want 1", len(result.Resources))
			}
			if got := result.Resources[0].Value[tt.wantKey]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.wantKey, got, tt.want)
			}
		})
	}

	t.Run("ranked candidates", func(t *testing.T) {
		out, _, err := run(t, NewResolveCommand, "--bundle", bundlePath, "--context", "language=fr", "--id", "app.greeting", "--all")
		if err != nil {
			t.Fatalf("resolve error = %v", err)
		}
		first := strings.Index(out, "1. [replace] language=fr")
		second := strings.Index(out, "2. [replace] (unconditional)")
		if first < 0 || second < first {
			t.Errorf("unexpected ranking output:\n%s", out)
		}
	})

	t.Run("tampered bundle", func(t *testing.T) {
		data, err := os.ReadFile(bundlePath)
		if err != nil {
			t.Fatal(err)
		}
		tampered := writeFile(t, dir, "tampered.bundle", string(data[:len(data)/2]))
		if _, _, err := run(t, NewResolveCommand, "--bundle", tampered); err == nil {
			t.Error("resolve should reject a truncated bundle")
		}
	})
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	baseline := writeFile(t, dir, "base.json", baselineJSON)
	next := writeFile(t, dir, "next.yaml", deltaYAML)
	merged := filepath.Join(dir, "merged.json")

	out, _, err := run(t, NewDiffCommand,
		"--baseline", baseline, "--delta", next, "--context", "env=dev", "--out", merged, "--json")
	if err != nil {
		t.Fatalf("diff error = %v", err)
	}

	var report output.DiffOutput
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	want := map[string]string{
		"app.banner":   "added",
		"app.greeting": "changed",
		"app.limits":   "unchanged",
	}
	for id, action := range want {
		if report.Actions[id] != action {
			t.Errorf("action[%s] = %q, want %q", id, report.Actions[id], action)
		}
	}

	// the edited baseline resolves like the delta for env=dev
	out, _, err = run(t, NewResolveCommand, "--resources", merged, "--context", "env=dev", "--id", "app.greeting", "--json")
	if err != nil {
		t.Fatalf("resolve merged error = %v", err)
	}
	var result output.ResolveOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if got := result.Resources[0].Value["text"]; got != "Hi" {
		t.Errorf("merged text = %v, want Hi", got)
	}
}

func TestParseContext(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"repeated", []string{"language=fr", "env=prod"}, map[string]string{"language": "fr", "env": "prod"}, false},
		{"semicolons", []string{"language=fr,de; env=prod"}, map[string]string{"language": "fr,de", "env": "prod"}, false},
		{"missing value separator", []string{"language"}, nil, true},
		{"duplicate", []string{"env=a", "env=b"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseContext(tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseContext() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseContext() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseContext()[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, NewVersionCommand)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "gores version") {
		t.Errorf("output doesn't contain 'gores version', got: %s", out)
	}

	if _, _, err := run(t, NewVersionCommand, "extraarg"); err == nil {
		t.Error("Execute() should return error for extra arguments")
	}
}
