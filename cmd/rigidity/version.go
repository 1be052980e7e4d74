package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/mocap.rigidity/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rigidity",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rigidity version %s\n", version.String())
		},
	}
}
