package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gores/cmd/gores/output"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/runtime"
)

type resolveOptions struct {
	source
	context []string
	ids     []string
	all     bool
	json    bool
}

// NewResolveCommand creates the resolve command
func NewResolveCommand(console *output.Console) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve resources for a context",
		Long: `Resolve resources against a context and print their composed values.

Without --id every resource is resolved. With --all the ranked matching
candidates are listed instead of the composed value.

Examples:
  gores resolve --resources strings.json --context language=fr-CA
  gores resolve --bundle strings.bundle --context "language=en-GB;env=prod" --id app.greeting
  gores resolve --bundle strings.bundle --context language=fr,de --all --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := observability.StartCommandSpan(cmd.Context(), "resolve")
			err := runResolve(ctx, console, opts)
			observability.EndSpanWithError(span, err)
			return err
		},
	}

	addSourceFlags(cmd, &opts.source)
	cmd.Flags().StringArrayVar(&opts.context, "context", nil, "Context value name=value (repeatable, or name=value;name=value)")
	cmd.Flags().StringArrayVar(&opts.ids, "id", nil, "Resource id to resolve (repeatable, default all)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "List every matching candidate, best first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Write results as JSON to stdout")

	return cmd
}

func runResolve(ctx context.Context, console *output.Console, opts *resolveOptions) error {
	start := time.Now()
	if err := opts.validate(); err != nil {
		return err
	}
	contextDecl, err := parseContext(opts.context)
	if err != nil {
		return err
	}
	_, m, err := opts.load(ctx)
	if err != nil {
		return err
	}

	resolver, err := runtime.NewResourceResolver(runtime.ResolverParams{
		Source:  m,
		Context: contextDecl,
		Logger:  logger(),
	})
	if err != nil {
		return err
	}

	ids := opts.ids
	if len(ids) == 0 {
		ids = resolver.ResourceIDs()
	}

	result := output.NewResolveOutput(resolver.Context().String(), start)
	failed := 0
	for _, id := range ids {
		rr := resolveOne(ctx, resolver, id, opts.all)
		if rr.Error != "" {
			failed++
		}
		result.Resources = append(result.Resources, rr)
	}
	result.ElapsedMs = output.MeasureElapsed(start)

	if opts.json {
		if err := output.WriteJSON(console.Out(), result); err != nil {
			return err
		}
	} else {
		printResolved(console, result)
	}

	if failed == len(ids) && failed > 0 {
		return fmt.Errorf("no resource resolved for %s", result.Context)
	}
	return nil
}

func resolveOne(ctx context.Context, resolver *runtime.ResourceResolver, id string, all bool) output.ResolvedResource {
	rr := output.ResolvedResource{ID: id}
	if !all {
		value, err := resolver.ResolveComposedResourceValue(ctx, id)
		if err != nil {
			rr.Error = err.Error()
			return rr
		}
		rr.Value = value
		return rr
	}

	ranked, err := resolver.ResolveAllResourceCandidates(ctx, id)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	for _, c := range ranked {
		rr.Candidates = append(rr.Candidates, output.ResolvedCandidate{
			Conditions:  c.ConditionSet().Token(),
			MergeMethod: string(c.MergeMethod()),
			Value:       c.Value(),
		})
	}
	return rr
}

func printResolved(console *output.Console, result *output.ResolveOutput) {
	console.Header("Context: %s", result.Context)
	for _, rr := range result.Resources {
		if rr.Error != "" {
			console.Warning("%s: %s", rr.ID, rr.Error)
			continue
		}
		if rr.Candidates == nil {
			console.Printf("%s = %s\n", rr.ID, compact(rr.Value))
			continue
		}
		console.Println(rr.ID)
		for i, c := range rr.Candidates {
			conds := c.Conditions
			if conds == "" {
				conds = "(unconditional)"
			}
			console.Printf("  %d. [%s] %s %s\n", i+1, c.MergeMethod, conds, compact(c.Value))
		}
	}
	console.Detail("Resolved %d resources in %dms", len(result.Resources), result.ElapsedMs)
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
