package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <trajectories.csv>",
		Short: "Print per-bone length statistics without correcting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skel, set, err := loadInputs(root, args[0])
			if err != nil {
				return err
			}
			stats, statErr := rigidity.ComputeStatistics(set, skel.Definitions)
			fmt.Fprint(cmd.OutOrStdout(), rigidity.FormatTable(stats))
			if statErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", statErr)
			}
			return nil
		},
	}
}

func newDimensionsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dimensions <trajectories.csv>",
		Short: "Estimate body dimensions from median bone lengths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skel, set, err := loadInputs(root, args[0])
			if err != nil {
				return err
			}
			stats, statErr := rigidity.ComputeStatistics(set, skel.Definitions)
			if statErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", statErr)
			}
			dims, err := rigidity.EstimateBodyDimensions(stats, rigidity.DimensionBonesFor(skel), rigidity.AnthropometryFromRig(root.cfg))
			if err != nil {
				return err
			}
			printDimensions(cmd.OutOrStdout(), dims)
			return nil
		},
	}
}

// loadInputs resolves the skeleton, loads the trajectories and applies
// the hand tail overrides the configuration asks for.
func loadInputs(root *rootOptions, path string) (skeleton.Skeleton, *trajectory.Set, error) {
	skel, err := root.resolveSkeleton()
	if err != nil {
		return skeleton.Skeleton{}, nil, err
	}
	set, err := root.loadSet(path)
	if err != nil {
		return skeleton.Skeleton{}, nil, err
	}
	if root.cfg.GetRedirectHandTails() {
		var overrides []skeleton.Override
		for _, o := range skeleton.HandMiddleOverrides(set) {
			if _, _, ok := skel.Definitions.Lookup(o.Bone); ok {
				overrides = append(overrides, o)
			}
		}
		if skel, err = skel.WithOverrides(overrides...); err != nil {
			return skeleton.Skeleton{}, nil, err
		}
	}
	return skel, set, nil
}
