package main

import (
	"context"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file from the engine host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *tendril.Client) error {
				contents, err := c.Host().File(args[0]).Contents(ctx)
				if err != nil {
					return err
				}
				tui.NewPrinter(cmd.OutOrStdout()).Text(contents)
				return nil
			})
		},
	}
}

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Print a file's metadata as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *tendril.Client) error {
				info, err := c.Host().File(args[0]).Stat(ctx)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(info); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
}

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env <name>",
		Short: "Print an environment variable of the engine host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *tendril.Client) error {
				value, err := c.Host().EnvVariable(args[0]).Value(ctx)
				if err != nil {
					return err
				}
				tui.NewPrinter(cmd.OutOrStdout()).Text(value)
				return nil
			})
		},
	}
}
