package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gores/cmd/gores/output"
	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/observability"
)

type validateOptions struct {
	source
	json bool
}

// NewValidateCommand creates the validate command
func NewValidateCommand(console *output.Console) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration and resource declarations",
		Long: `Load a system configuration and resource declaration files, build every
resource and report all errors.

Resource files may be JSON, JSONC, YAML or TOML.

Examples:
  gores validate --resources strings.json
  gores validate --config qualifiers.yaml --resources a.json --resources b.yaml
  gores validate --bundle strings.bundle --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := observability.StartCommandSpan(cmd.Context(), "validate")
			err := runValidate(ctx, console, opts)
			observability.EndSpanWithError(span, err)
			return err
		},
	}

	addSourceFlags(cmd, &opts.source)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Write the report as JSON to stdout")

	return cmd
}

func runValidate(ctx context.Context, console *output.Console, opts *validateOptions) error {
	start := time.Now()
	if err := opts.validate(); err != nil {
		return err
	}

	var agg common.Aggregate
	_, m, err := opts.load(ctx)
	if m == nil {
		return err
	}
	agg.Add(err)

	built, err := m.GetAllBuiltResources()
	agg.Add(err)
	candidates := 0
	for _, r := range built {
		candidates += len(r.Candidates())
	}

	report := &output.ValidateOutput{
		SchemaVersion: output.CurrentSchemaVersion,
		Config:        opts.configPath,
		Resources:     m.Size(),
		Candidates:    candidates,
		Conditions:    m.Conditions().Len(),
		ConditionSets: m.ConditionSets().Len(),
		Decisions:     m.Decisions().Len(),
		Errors:        errorStrings(agg.Err()),
		ElapsedMs:     output.MeasureElapsed(start),
	}
	if opts.bundlePath != "" {
		report.Config = opts.bundlePath
	}

	if opts.json {
		if err := output.WriteJSON(console.Out(), report); err != nil {
			return err
		}
	} else {
		for _, e := range report.Errors {
			console.Error("%s", e)
		}
		console.Info("%d resources, %d candidates, %d conditions, %d condition sets, %d decisions",
			report.Resources, report.Candidates, report.Conditions, report.ConditionSets, report.Decisions)
	}

	if n := len(report.Errors); n > 0 {
		return fmt.Errorf("validation failed with %d error(s)", n)
	}
	if !opts.json {
		console.Success("Valid")
	}
	return nil
}

func addSourceFlags(cmd *cobra.Command, s *source) {
	cmd.Flags().StringVar(&s.configPath, "config", defaultConfig, "System configuration file or predefined:<name>")
	cmd.Flags().StringArrayVar(&s.resourcePaths, "resources", nil, "Resource declaration file (repeatable)")
	cmd.Flags().StringVar(&s.bundlePath, "bundle", "", "Compiled bundle to load instead of --config/--resources")
	cmd.Flags().StringVar(&s.defaultType, "default-type", "json", "Resource type for resources that do not name one")
}
