package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/assay.report/internal/hcs"
)

func newMethodsCommand(ctx *commandContext) *cobra.Command {
	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "Manage per-endpoint method assignments",
	}

	methodsCmd.AddCommand(newMethodsListCommand(ctx))
	methodsCmd.AddCommand(newMethodsAssignCommand(ctx))
	methodsCmd.AddCommand(newMethodsDefaultsCommand(ctx))

	return methodsCmd
}

// newMethodsListCommand shows the catalog, or a study's assignments with
// --asid.
func newMethodsListCommand(ctx *commandContext) *cobra.Command {
	var asid int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog methods or a study's assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog := newCatalog(cfg)

			if !cmd.Flags().Changed("asid") {
				rows := make([][]string, 0, hcs.LevelMax)
				for level := 1; level <= hcs.LevelMax; level++ {
					def, _ := catalog.Default(level)
					rows = append(rows, []string{
						strconv.Itoa(level),
						strings.Join(catalog.MethodNames(level), ", "),
						def,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Level", "Methods", "Default"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			assignments, err := store.AssignmentsByStudy(asid)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(assignments))
			for _, a := range assignments {
				rows = append(rows, []string{
					strconv.FormatInt(a.AEID, 10),
					a.Endpoint,
					strconv.Itoa(a.Level),
					a.Method,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"AEID", "Endpoint", "Level", "Method"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().Int64Var(&asid, "asid", 0, "Show assignments for this study")
	return cmd
}

func newMethodsAssignCommand(ctx *commandContext) *cobra.Command {
	var aeid int64
	var level int
	var method string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Bind an endpoint and level to a catalog method",
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

			endpoint, err := store.GetEndpoint(aeid)
			if err != nil {
				return err
			}
			if endpoint == nil {
				return fmt.Errorf("no endpoint %d", aeid)
			}
			return newCatalog(cfg).Assign(store, aeid, level, method)
		},
	}

	cmd.Flags().Int64Var(&aeid, "aeid", 0, "Endpoint id")
	cmd.Flags().IntVar(&level, "level", 0, "Level to assign")
	cmd.Flags().StringVar(&method, "method", "", "Catalog method name")
	cmd.MarkFlagRequired("aeid")
	cmd.MarkFlagRequired("level")
	cmd.MarkFlagRequired("method")

	return cmd
}

func newMethodsDefaultsCommand(ctx *commandContext) *cobra.Command {
	var asid int64

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Fill unassigned levels with the catalog defaults",
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
			return newCatalog(cfg).AssignDefaults(store, asid)
		},
	}

	cmd.Flags().Int64Var(&asid, "asid", 0, "Study id")
	cmd.MarkFlagRequired("asid")
	return cmd
}
