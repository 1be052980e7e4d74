package main

import (
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/mocap.rigidity/internal/storage/sqlite"
)

func newRunsCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded normalisation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			runs, err := store.List(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCREATED\tSKELETON\tFRAMES\tMARKERS\tGOOD FRAME\tHEIGHT\tSOURCE")
			for _, r := range runs {
				good, height := "-", "-"
				if r.GoodFrame != nil {
					good = fmt.Sprint(*r.GoodFrame)
				}
				if r.Dimensions != nil {
					height = fmt.Sprintf("%.3f", r.Dimensions.TotalHeight)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
					r.RunID, time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339),
					r.Skeleton, r.FrameCount, r.MarkerCount, good, height, r.SourcePath)
			}
			return w.Flush()
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "runs.db", "SQLite database holding recorded runs")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the per-bone statistics of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			run, err := store.Get(args[0])
			if err != nil {
				return err
			}
			bones, err := store.BoneStatsForRun(run.RunID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s (%s, %d frames) from %s\n", run.RunID, run.Skeleton, run.FrameCount, run.SourcePath)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BONE\tHEAD\tTAIL\tDEFINED\tMEDIAN BEFORE\tSTDEV BEFORE\tMEDIAN AFTER\tSTDEV AFTER")
			for _, b := range bones {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n", b.Bone, b.Head, b.Tail, b.Defined,
					cell(b.MedianBefore), cell(b.StdevBefore), cell(b.MedianAfter), cell(b.StdevAfter))
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(show)
	return cmd
}

func openStore(path string) (*sqlite.RunStore, func(), error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewRunStore(db), func() { db.Close() }, nil
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.5f", v)
}
