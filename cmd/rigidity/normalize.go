package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/mocap.rigidity/internal/monitoring"
	"github.com/banshee-data/mocap.rigidity/internal/report"
	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
	"github.com/banshee-data/mocap.rigidity/internal/storage/sqlite"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

type normalizeOptions struct {
	output     string
	errorsPath string
	dbPath     string
	plotsDir   string
	htmlPath   string
}

func newNormalizeCmd(root *rootOptions) *cobra.Command {
	o := &normalizeOptions{}
	cmd := &cobra.Command{
		Use:   "normalize <trajectories.csv>",
		Short: "Enforce rigid bone lengths and write the corrected trajectories",
		Long: `Enforces every bone of the skeleton to its median length on every frame
and writes the corrected trajectories (in meters) to --output.

With --errors a good frame is also selected from the input trajectories.
--db records the run, --plots writes per-bone length plots and --html
writes a report page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd.OutOrStdout(), root, o, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "Corrected trajectory CSV to write")
	f.StringVar(&o.errorsPath, "errors", "", "Per-frame tracking error CSV, enables good-frame selection")
	f.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in")
	f.StringVar(&o.plotsDir, "plots", "", "Directory for per-bone length plots")
	f.StringVar(&o.htmlPath, "html", "", "HTML report to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runNormalize(out io.Writer, root *rootOptions, o *normalizeOptions, input string) error {
	skel, err := root.resolveSkeleton()
	if err != nil {
		return err
	}
	set, err := root.loadSet(input)
	if err != nil {
		return err
	}

	// Select before anything is written so a failed selection leaves no
	// output behind.
	var goodFrame *int
	if o.errorsPath != "" {
		errs, err := trajectory.LoadErrorCSV(o.errorsPath)
		if err != nil {
			return err
		}
		f, err := rigidity.SelectGoodFrame(set, errs, rigidity.GoodFrameOptionsFromRig(root.cfg))
		if err != nil {
			return err
		}
		goodFrame = &f
	}

	rep, err := rigidity.NewPipeline(rigidity.PipelineConfigFromRig(root.cfg, skel)).Run(set)
	if err != nil {
		return err
	}
	if err := trajectory.SaveCSV(o.output, rep.Set); err != nil {
		return err
	}

	fmt.Fprint(out, rigidity.FormatComparison(rep.Before, rep.After))
	for _, s := range rep.Skipped {
		fmt.Fprintf(out, "skipped: %v\n", s)
	}
	if n := len(rep.Degenerate); n > 0 {
		fmt.Fprintf(out, "zero-length samples: %d\n", n)
	}
	if rep.Dimensions != nil {
		printDimensions(out, rep.Dimensions)
	}
	if goodFrame != nil {
		fmt.Fprintf(out, "good frame: %d\n", *goodFrame)
	}

	if o.plotsDir != "" {
		n, err := report.PlotBoneLengths(o.plotsDir, rep.Before, rep.After)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %d plots to %s", n, o.plotsDir)
	}
	if o.htmlPath != "" {
		if err := writeHTML(o.htmlPath, rep); err != nil {
			return err
		}
	}
	if o.dbPath != "" {
		id, err := recordRun(o.dbPath, root, input, rep, goodFrame)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run: %s\n", id)
	}
	return nil
}

func writeHTML(path string, rep *rigidity.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.RenderHTML(f, rep.Before, rep.After, rep.Dimensions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func recordRun(dbPath string, root *rootOptions, input string, rep *rigidity.Report, goodFrame *int) (string, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	cfgJSON, err := json.Marshal(root.cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	run := &sqlite.Run{
		SourcePath:  input,
		Skeleton:    rep.Skeleton.Name,
		FrameCount:  rep.Set.Frames(),
		MarkerCount: rep.Set.Len(),
		GoodFrame:   goodFrame,
		Dimensions:  rep.Dimensions,
		ConfigJSON:  cfgJSON,
		Bones:       sqlite.BoneRecords(rep.Skeleton.Definitions, rep.Before, rep.After, rep.Skipped),
	}
	if err := sqlite.NewRunStore(db).Insert(run); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.RunID, nil
}

func printDimensions(out io.Writer, d *rigidity.BodyDimensions) {
	fmt.Fprintf(out, "total height:     %.4f m\n", d.TotalHeight)
	fmt.Fprintf(out, "total wingspan:   %.4f m\n", d.TotalWingspan)
	fmt.Fprintf(out, "mean leg length:  %.4f m\n", d.MeanLegLength)
	fmt.Fprintf(out, "mean foot length: %.4f m\n", d.MeanFootLength)
}
