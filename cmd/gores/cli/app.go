package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/willibrandon/gores/cmd/gores/output"
	"github.com/willibrandon/gores/cmd/gores/version"
	"github.com/willibrandon/gores/observability"
)

// GlobalOptions hold the persistent flags shared by every command.
type GlobalOptions struct {
	Verbosity    string
	LogLevel     string
	Trace        string
	OTLPEndpoint string
}

var rootCmd = &cobra.Command{
	Use:   "gores",
	Short: "Qualifier-based resource resolution",
	Long: `gores validates, compiles and resolves resource collections whose
candidate values are selected by qualifiers such as language, territory,
platform and environment.

Examples:
  gores validate --resources strings.json
  gores compile --resources strings.json --out strings.bundle --format cbor --compression zstd
  gores resolve --bundle strings.bundle --context language=fr-CA
  gores diff --baseline base.yaml --delta next.yaml --context env=prod`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown(cmd.Context())
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Show help when no command is provided
		_ = cmd.Help()
	},
}

// Console is the global console for CLI commands
var Console *output.Console

// Options holds the parsed persistent flags.
var Options = &GlobalOptions{}

var tracerProvider *sdktrace.TracerProvider

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	Console = output.DefaultConsole()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&Options.Verbosity, "verbosity", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	flags.StringVar(&Options.LogLevel, "log-level", "warning", "Structured log level on stderr (verbose, debug, info, warning, error)")
	flags.StringVar(&Options.Trace, "trace", observability.ExporterNone, "Trace exporter (none, stdout, otlp)")
	flags.StringVar(&Options.OTLPEndpoint, "otlp-endpoint", "localhost:4317", "OTLP gRPC collector endpoint for --trace otlp")
}

func setup(ctx context.Context) error {
	v, err := output.ParseVerbosity(Options.Verbosity)
	if err != nil {
		return err
	}
	Console.SetVerbosity(v)

	if Options.Trace == "" || Options.Trace == observability.ExporterNone {
		return nil
	}
	cfg := observability.DefaultTracerConfig()
	cfg.ServiceVersion = version.Version
	cfg.ExporterType = Options.Trace
	cfg.OTLPEndpoint = Options.OTLPEndpoint
	tracerProvider, err = observability.SetupTracing(ctx, cfg)
	return err
}

func teardown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	tp := tracerProvider
	tracerProvider = nil
	return observability.ShutdownTracing(ctx, tp)
}

// Logger returns the structured logger selected by --log-level.
func Logger() (observability.Logger, error) {
	level, err := observability.ParseLogLevel(Options.LogLevel)
	if err != nil {
		return nil, err
	}
	return observability.NewLogger(os.Stderr, level), nil
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
