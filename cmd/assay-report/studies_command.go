package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStudiesCommand(ctx *commandContext) *cobra.Command {
	studiesCmd := &cobra.Command{
		Use:   "studies",
		Short: "Query registered studies",
	}

	var name, phase string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List studies, optionally filtered by name and phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			filters := map[string]string{}
			if name != "" {
				filters["name"] = name
			}
			if phase != "" {
				filters["phase"] = phase
			}
			studies, err := store.FindStudies(filters)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(studies))
			for _, s := range studies {
				rows = append(rows, []string{
					strconv.FormatInt(s.ASID, 10), s.Name, s.Phase,
					s.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ASID", "Name", "Phase", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	listCmd.Flags().StringVar(&name, "name", "", "Filter by study name")
	listCmd.Flags().StringVar(&phase, "phase", "", "Filter by phase")

	studiesCmd.AddCommand(listCmd)
	return studiesCmd
}
