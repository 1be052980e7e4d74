package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

func newGoodFrameCmd(root *rootOptions) *cobra.Command {
	var (
		errorsPath string
		markers    []string
	)
	cmd := &cobra.Command{
		Use:   "goodframe <trajectories.csv>",
		Short: "Select the stillest well-tracked frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := root.loadSet(args[0])
			if err != nil {
				return err
			}
			errs, err := trajectory.LoadErrorCSV(errorsPath)
			if err != nil {
				return err
			}
			opts := rigidity.GoodFrameOptionsFromRig(root.cfg)
			opts.Markers = markers
			f, err := rigidity.SelectGoodFrame(set, errs, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "good frame: %d\n", f)
			return nil
		},
	}
	cmd.Flags().StringVar(&errorsPath, "errors", "", "Per-frame tracking error CSV")
	cmd.Flags().StringSliceVar(&markers, "markers", nil, "Markers to consider (default: all)")
	_ = cmd.MarkFlagRequired("errors")
	return cmd
}
