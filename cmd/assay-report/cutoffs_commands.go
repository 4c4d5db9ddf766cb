package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/assay.report/internal/hcs"
	"github.com/banshee-data/assay.report/internal/hcs/noiseband"
)

func newCutoffsCommand(ctx *commandContext) *cobra.Command {
	cutoffsCmd := &cobra.Command{
		Use:   "cutoffs",
		Short: "Manage noise-band cutoffs",
	}

	cutoffsCmd.AddCommand(newCutoffsComputeCommand(ctx))
	cutoffsCmd.AddCommand(newCutoffsListCommand(ctx))

	return cutoffsCmd
}

func parseScope(s string) (hcs.Scope, error) {
	switch hcs.Scope(s) {
	case hcs.ScopeStudy, hcs.ScopeGlobal:
		return hcs.Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q (want %q or %q)", s, hcs.ScopeStudy, hcs.ScopeGlobal)
	}
}

// newCutoffsComputeCommand estimates cutoffs for every endpoint of a study.
// Endpoints with too few usable controls report their error inline; the rest
// proceed.
func newCutoffsComputeCommand(ctx *commandContext) *cobra.Command {
	var asid int64
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Estimate and persist noise-band cutoffs for a study",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(scopeFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := noiseband.EstimateForStudy(store, asid, scope, bandConfig(cfg))
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, r := range results {
				outcome, detail := "ok", ""
				cutoff := strconv.FormatFloat(r.Cutoff, 'g', -1, 64)
				if r.Err != nil {
					outcome, detail, cutoff = "failed", r.Err.Error(), ""
					failed++
				}
				rows = append(rows, []string{
					strconv.FormatInt(r.AEID, 10), r.Endpoint, cutoff,
					strconv.Itoa(r.NControls), outcome, detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"AEID", "Endpoint", "Cutoff", "Controls", "Outcome", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))

			if failed > 0 {
				return fmt.Errorf("%d of %d endpoints failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&asid, "asid", 0, "Study id")
	cmd.Flags().StringVar(&scopeFlag, "scope", string(hcs.ScopeStudy), "Control scope (study or global)")
	cmd.MarkFlagRequired("asid")

	return cmd
}

func newCutoffsListCommand(ctx *commandContext) *cobra.Command {
	var asid int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted cutoffs for a study",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			cutoffs, err := store.CutoffsByStudy(asid)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cutoffs))
			for _, c := range cutoffs {
				rows = append(rows, []string{
					strconv.FormatInt(c.AEID, 10),
					string(c.Scope),
					strconv.FormatFloat(c.Value, 'g', -1, 64),
					strconv.Itoa(c.NControls),
					c.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"AEID", "Scope", "Cutoff", "Controls", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().Int64Var(&asid, "asid", 0, "Study id")
	cmd.MarkFlagRequired("asid")
	return cmd
}
