package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gores/bundle"
	"github.com/willibrandon/gores/cmd/gores/output"
	"github.com/willibrandon/gores/observability"
)

type compileOptions struct {
	source
	out         string
	format      string
	compression string
	description string
	filter      []string
	reduce      bool
	indent      bool
}

// NewCompileCommand creates the compile command
func NewCompileCommand(console *output.Console) *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile resources into a bundle",
		Long: `Build every resource and write a bundle holding the configuration, the
compiled collection and a checksum. Any build error fails the command.

A --filter context compiles only the candidates that can match it;
--reduce additionally drops the conditions the filter satisfies perfectly.

Examples:
  gores compile --resources strings.json --out strings.bundle
  gores compile --resources strings.yaml --out strings.bundle --format cbor --compression zstd
  gores compile --resources strings.json --out fr.bundle --filter language=fr --reduce`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := observability.StartCommandSpan(cmd.Context(), "compile")
			err := runCompile(ctx, console, opts)
			observability.EndSpanWithError(span, err)
			return err
		},
	}

	addSourceFlags(cmd, &opts.source)
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Bundle file to write (required)")
	cmd.Flags().StringVar(&opts.format, "format", string(bundle.FormatJSON), "Bundle format (json, cbor)")
	cmd.Flags().StringVar(&opts.compression, "compression", string(bundle.CompressionNone), "Compression (none, zstd, lz4)")
	cmd.Flags().StringVar(&opts.description, "description", "", "Bundle description")
	cmd.Flags().StringArrayVar(&opts.filter, "filter", nil, "Context value to filter candidates by (repeatable name=value)")
	cmd.Flags().BoolVar(&opts.reduce, "reduce", false, "Drop conditions the filter matches perfectly")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "Pretty-print JSON bundles")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runCompile(ctx context.Context, console *output.Console, opts *compileOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	format, err := bundle.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	compression, err := bundle.ParseCompression(opts.compression)
	if err != nil {
		return err
	}

	filter, err := parseContext(opts.filter)
	if err != nil {
		return err
	}
	cfg, m, err := opts.load(ctx)
	if err != nil {
		return err
	}

	_, span := observability.StartBundleSpan(ctx, "create", string(format))
	b, err := bundle.Create(m, cfg, bundle.CreateOptions{
		Description:      opts.description,
		FilterForContext: filter,
		ReduceQualifiers: opts.reduce,
	})
	observability.EndSpanWithError(span, err)
	if err != nil {
		return err
	}

	data, err := bundle.Encode(b, bundle.EncodeOptions{Format: format, Compression: compression, Indent: opts.indent})
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	console.Detail("Bundle %s", b.Metadata.ID)
	console.Detail("Checksum %s", b.Metadata.Checksum)
	console.Success("Compiled %d resources into %s (%s, %s, %d bytes)",
		len(b.Compiled.Resources), opts.out, format, compression, len(data))
	return nil
}
