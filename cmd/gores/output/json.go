package output

import (
	"encoding/json"
	"io"
	"time"
)

// JSON output types matching the schema contract

// CurrentSchemaVersion is the schema version for all JSON outputs
const CurrentSchemaVersion = "1.0.0"

// ValidateOutput represents the JSON output for the validate command
type ValidateOutput struct {
	SchemaVersion string   `json:"schemaVersion"`
	Config        string   `json:"config"`
	Resources     int      `json:"resources"`
	Candidates    int      `json:"candidates"`
	Conditions    int      `json:"conditions"`
	ConditionSets int      `json:"conditionSets"`
	Decisions     int      `json:"decisions"`
	Errors        []string `json:"errors"`
	ElapsedMs     int64    `json:"elapsedMs"`
}

// ResolveOutput represents the JSON output for the resolve command
type ResolveOutput struct {
	SchemaVersion string             `json:"schemaVersion"`
	Context       string             `json:"context"`
	Resources     []ResolvedResource `json:"resources"`
	ElapsedMs     int64              `json:"elapsedMs"`
}

// ResolvedResource is one resolved resource in JSON output
type ResolvedResource struct {
	ID         string              `json:"id"`
	Value      map[string]any      `json:"value,omitempty"`
	Candidates []ResolvedCandidate `json:"candidates,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// ResolvedCandidate is one ranked candidate in JSON output
type ResolvedCandidate struct {
	Conditions  string         `json:"conditions"`
	MergeMethod string         `json:"mergeMethod"`
	Value       map[string]any `json:"value"`
}

// DiffOutput represents the JSON output for the diff command
type DiffOutput struct {
	SchemaVersion string            `json:"schemaVersion"`
	Context       string            `json:"context"`
	Actions       map[string]string `json:"actions"`
	Edits         any               `json:"edits"`
	Errors        []string          `json:"errors"`
	ElapsedMs     int64             `json:"elapsedMs"`
}

// NewResolveOutput creates a new ResolveOutput with schema version
func NewResolveOutput(context string, start time.Time) *ResolveOutput {
	return &ResolveOutput{
		SchemaVersion: CurrentSchemaVersion,
		Context:       context,
		Resources:     []ResolvedResource{},
		ElapsedMs:     MeasureElapsed(start),
	}
}

// WriteJSON writes a JSON object to the specified writer (typically stdout)
// When --json is used, ALL JSON goes to stdout and ALL messages go to stderr
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// MeasureElapsed returns elapsed time in milliseconds since start
func MeasureElapsed(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
