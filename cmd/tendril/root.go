package main

import (
	"context"
	"os"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

// app holds the state shared by every subcommand.
type app struct {
	opts cli.Options
}

func newRootCmd(extra ...tendril.Option) *cobra.Command {
	a := &app{opts: cli.Options{Extra: extra}}

	rootCmd := &cobra.Command{
		Use:   "tendril",
		Short: "Tendril queries a remote engine through lazy references",
		Long: `Tendril opens a session with an engine and resolves chains of operations
(host, directory, file, ...) against it, one round trip per command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.opts.Endpoint, "endpoint", "", "Engine endpoint (http://, ws://, unix://)")
	flags.StringVar(&a.opts.Token, "token", "", "Credentials sent in the handshake")
	flags.DurationVar(&a.opts.Timeout, "timeout", 0, "Connect timeout")
	flags.StringVar(&a.opts.ConfigFile, "config", "", "Configuration file (YAML or JSON)")
	flags.BoolVar(&a.opts.Debug, "debug", false, "Log session activity to stderr")

	rootCmd.AddCommand(
		newLsCmd(a),
		newCatCmd(a),
		newEnvCmd(a),
		newStatCmd(a),
		newServeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// withClient runs fn against a freshly connected client.
func (a *app) withClient(cmd *cobra.Command, fn func(context.Context, *tendril.Client) error) error {
	return cli.With(cmd.Context(), a.opts, fn)
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(os.Args[1:])
	err := rootCmd.ExecuteContext(ctx)
	return cli.Report(os.Stderr, err, ctx.Signal() != nil)
}
