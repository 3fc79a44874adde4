package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/presentation/graph"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/spf13/cobra"
)

func newLsCmd(a *app) *cobra.Command {
	var (
		include []string
		exclude []string
		pattern string
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory on the engine host",
		Long: `Lists a directory on the engine host. Subdirectories end with a slash.
With --explain the chain sent to the engine is printed as a Mermaid diagram
instead, with the failing step highlighted when the engine reports a fault.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			return a.withClient(cmd, func(ctx context.Context, c *tendril.Client) error {
				dir := c.Host().Directory(path, tendril.HostDirectoryOpts{Include: include, Exclude: exclude})

				var (
					entries []string
					err     error
				)
				last := domain.Operation{Name: "entries"}
				if pattern != "" {
					last = domain.Operation{Name: "glob", Args: []domain.Arg{{Name: "pattern", Value: pattern}}}
					entries, err = dir.Glob(ctx, pattern)
				} else {
					entries, err = dir.Entries(ctx)
				}

				if explain {
					overlay := &graph.Overlay{FailedStep: -1}
					var resErr *tendril.ResolutionError
					if errors.As(err, &resErr) && len(resErr.Faults) > 0 {
						overlay.FailedStep = resErr.Faults[0].Step
					}
					fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(append(dir.Chain(), last), overlay))
					return err
				}
				if err != nil {
					return err
				}
				tui.NewPrinter(cmd.OutOrStdout()).Entries(entries)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "Only list entries matching these glob patterns")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Skip entries matching these glob patterns")
	cmd.Flags().StringVar(&pattern, "glob", "", "List paths matching a pattern (supports **)")
	cmd.Flags().BoolVar(&explain, "explain", false, "Print the operation chain as a Mermaid diagram")
	return cmd
}
