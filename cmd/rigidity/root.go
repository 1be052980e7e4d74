package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/mocap.rigidity/internal/config"
	"github.com/banshee-data/mocap.rigidity/internal/monitoring"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

// rootOptions holds the persistent flags and the configuration they
// resolve to.
type rootOptions struct {
	configPath string
	skeleton   string
	units      string
	verbose    bool

	cfg *config.RigConfig
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "rigidity",
		Short: "Normalise marker trajectories into a rigid skeleton",
		Long: `rigidity reads per-frame 3D marker positions, forces every bone of a
skeleton to its median length on every frame, estimates body dimensions
from the corrected bones and selects a still, well-tracked calibration frame.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Path to a rig configuration JSON file")
	flags.StringVar(&o.skeleton, "skeleton", "", `Skeleton table: "body", "full" or a YAML file (overrides config)`)
	flags.StringVar(&o.units, "units", "", "Length unit of input CSV files: m, cm or mm (overrides config)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newNormalizeCmd(o),
		newStatsCmd(o),
		newDimensionsCmd(o),
		newGoodFrameCmd(o),
		newRunsCmd(),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration file, if any, and applies flag overrides.
func (o *rootOptions) load() error {
	monitoring.SetDebug(o.verbose)

	cfg := config.EmptyRigConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadRigConfig(o.configPath); err != nil {
			return err
		}
	}
	if o.skeleton != "" {
		cfg.Skeleton = &o.skeleton
	}
	if o.units != "" {
		cfg.InputUnits = &o.units
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	return nil
}

func (o *rootOptions) resolveSkeleton() (skeleton.Skeleton, error) {
	return skeleton.Resolve(o.cfg.GetSkeleton())
}

func (o *rootOptions) loadSet(path string) (*trajectory.Set, error) {
	set, err := trajectory.LoadCSV(path, o.cfg.GetInputUnits())
	if err != nil {
		return nil, err
	}
	monitoring.Debugf("loaded %s: %d markers, %d frames", path, set.Len(), set.Frames())
	return set, nil
}
