// cmd/gores/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/gores/cmd/gores/cli"
	"github.com/willibrandon/gores/cmd/gores/commands"
)

func main() {
	cli.SetupVersion()

	cli.AddCommand(commands.NewVersionCommand(cli.Console))
	cli.AddCommand(commands.NewValidateCommand(cli.Console))
	cli.AddCommand(commands.NewCompileCommand(cli.Console))
	cli.AddCommand(commands.NewResolveCommand(cli.Console))
	cli.AddCommand(commands.NewDiffCommand(cli.Console))

	// Cancel the command context on interrupt so tracing can flush
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		// SilenceErrors is set on the root command
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
