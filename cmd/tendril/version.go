package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tendril"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tendril",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tendril version %s\n", strings.TrimSpace(tendril.Version))
		},
	}
}
