package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/assay.report/internal/hcs"
	"github.com/banshee-data/assay.report/internal/hcs/pipeline"
)

// newRunCommand executes a pipeline run and renders the per-endpoint status
// report as a table. Isolated endpoint failures exit nonzero but only after
// the full report prints.
func newRunCommand(ctx *commandContext) *cobra.Command {
	var asid int64
	var startLevel, endLevel int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run pipeline levels for a study",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runner := pipeline.NewRunner(store, newCatalog(cfg))
			report, runErr := runner.Run(cmd.Context(), asid, startLevel, endLevel)
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
			}
			if runErr != nil {
				return runErr
			}

			if failed := report.Failed(); len(failed) > 0 {
				return fmt.Errorf("run %s: %d of %d units failed", report.RunID, len(failed), len(report.Statuses))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&asid, "asid", 0, "Study id")
	cmd.Flags().IntVar(&startLevel, "start", 1, "First level to run")
	cmd.Flags().IntVar(&endLevel, "end", hcs.LevelMax, "Last level to run")
	cmd.MarkFlagRequired("asid")

	return cmd
}

func renderReport(report *pipeline.Report) string {
	rows := make([][]string, 0, len(report.Statuses))
	for _, s := range report.Statuses {
		rows = append(rows, []string{
			strconv.Itoa(s.Level),
			strconv.FormatInt(s.AEID, 10),
			s.Endpoint,
			string(s.Outcome),
			s.Reason,
		})
	}
	return renderTable(
		[]string{"Level", "AEID", "Endpoint", "Outcome", "Reason"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	)
}
