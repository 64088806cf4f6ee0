package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gores/cmd/gores/output"
	"github.com/willibrandon/gores/delta"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/resources"
	"github.com/willibrandon/gores/runtime"
)

type diffOptions struct {
	configPath       string
	defaultType      string
	baseline         []string
	delta            []string
	context          []string
	includeUnchanged bool
	out              string
	json             bool
}

// NewDiffCommand creates the diff command
func NewDiffCommand(console *output.Console) *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Generate the edits that turn a baseline into a delta for a context",
		Long: `Resolve every resource of a baseline and a delta for one context and
report the candidate edits that make the baseline resolve like the delta.

Changed resources become partial candidates holding only the changed
properties; resources only in the delta become new resources. Resources
only in the baseline are reported and skipped.

With --out the baseline with the edits applied is written as a resource
collection declaration.

Examples:
  gores diff --baseline base.json --delta next.json --context env=prod
  gores diff --baseline base.yaml --delta next.yaml --context "language=fr;env=prod" --out merged.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := observability.StartCommandSpan(cmd.Context(), "diff")
			err := runDiff(ctx, console, opts)
			observability.EndSpanWithError(span, err)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", defaultConfig, "System configuration file or predefined:<name>")
	cmd.Flags().StringVar(&opts.defaultType, "default-type", "json", "Resource type for resources that do not name one")
	cmd.Flags().StringArrayVar(&opts.baseline, "baseline", nil, "Baseline resource declaration file (repeatable)")
	cmd.Flags().StringArrayVar(&opts.delta, "delta", nil, "Delta resource declaration file (repeatable)")
	cmd.Flags().StringArrayVar(&opts.context, "context", nil, "Context value name=value (repeatable, or name=value;name=value)")
	cmd.Flags().BoolVar(&opts.includeUnchanged, "include-unchanged", false, "Emit candidates for unchanged resources too")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the edited baseline as a collection declaration")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Write the report as JSON to stdout")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

func runDiff(ctx context.Context, console *output.Console, opts *diffOptions) error {
	start := time.Now()
	contextDecl, err := parseContext(opts.context)
	if err != nil {
		return err
	}

	baselineSrc := &source{configPath: opts.configPath, resourcePaths: opts.baseline, defaultType: opts.defaultType}
	_, baseline, err := baselineSrc.load(ctx)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	deltaSrc := &source{configPath: opts.configPath, resourcePaths: opts.delta, defaultType: opts.defaultType}
	_, next, err := deltaSrc.load(ctx)
	if err != nil {
		return fmt.Errorf("delta: %w", err)
	}

	log := logger()
	baselineResolver, err := runtime.NewResourceResolver(runtime.ResolverParams{Source: baseline, Logger: log})
	if err != nil {
		return err
	}
	deltaResolver, err := runtime.NewResourceResolver(runtime.ResolverParams{Source: next, Logger: log})
	if err != nil {
		return err
	}
	gen, err := delta.NewGenerator(delta.GeneratorParams{
		Baseline: baselineResolver,
		Delta:    deltaResolver,
		Target:   baseline,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	genOpts := delta.GenerateOptions{Context: contextDecl, IncludeUnchanged: opts.includeUnchanged}
	result, diffErr := gen.Diff(ctx, genOpts)
	if result == nil {
		return diffErr
	}

	var merged *resources.Manager
	var applyErr error
	if opts.out != "" {
		merged, applyErr = baseline.Clone(resources.CloneOptions{Edits: result.Edits})
	}

	report := &output.DiffOutput{
		SchemaVersion: output.CurrentSchemaVersion,
		Context:       deltaResolver.Context().String(),
		Actions:       result.Actions,
		Edits:         result.Edits,
		Errors:        append(errorStrings(diffErr), errorStrings(applyErr)...),
	}
	if len(result.Edits) == 0 {
		report.Edits = []any{}
	}

	if merged != nil {
		if err := writeCollection(opts.out, merged.GetResourceCollectionDecl(resources.DeclOptions{})); err != nil {
			return err
		}
	}

	report.ElapsedMs = output.MeasureElapsed(start)
	if opts.json {
		if err := output.WriteJSON(console.Out(), report); err != nil {
			return err
		}
	} else {
		printDiff(console, report, len(result.Edits))
		if merged != nil {
			console.Success("Wrote %s", opts.out)
		}
	}

	if n := len(report.Errors); n > 0 {
		return fmt.Errorf("diff finished with %d error(s)", n)
	}
	return nil
}

func printDiff(console *output.Console, report *output.DiffOutput, edits int) {
	console.Header("Context: %s", report.Context)
	ids := make([]string, 0, len(report.Actions))
	for id := range report.Actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		action := report.Actions[id]
		switch action {
		case delta.ActionUnchanged:
			console.Detail("  %-10s %s", action, id)
		case delta.ActionSkipped:
			console.Warning("%s has no delta value and was skipped", id)
		case delta.ActionFailed:
			console.Error("%s could not be compared", id)
		default:
			console.Printf("  %-10s %s\n", action, id)
		}
	}
	for _, e := range report.Errors {
		console.Error("%s", e)
	}
	console.Info("%d edits", edits)
}

func writeCollection(path string, decl resources.CollectionDecl) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := output.WriteJSON(f, decl); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
