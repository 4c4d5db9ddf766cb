package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/assay.report/internal/hcs/annotate"
	"github.com/banshee-data/assay.report/internal/hcs/prepare"
	"github.com/banshee-data/assay.report/internal/ingest"
)

// newLoadCommand registers a study from its metadata CSVs and loads the raw
// measurements as level 0, one transaction per stage.
func newLoadCommand(ctx *commandContext) *cobra.Command {
	var platePath, assayPath, rawPath string
	var priorASID int64
	var assignDefaults bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Register a study and load its raw data",
		RunE: func(cmd *cobra.Command, args []string) error {
			plateFile, err := os.Open(platePath)
			if err != nil {
				return fmt.Errorf("failed to open plate metadata: %w", err)
			}
			defer plateFile.Close()
			plateRows, err := ingest.ReadPlateRows(plateFile)
			if err != nil {
				return err
			}

			assayFile, err := os.Open(assayPath)
			if err != nil {
				return fmt.Errorf("failed to open assay metadata: %w", err)
			}
			defer assayFile.Close()
			assayRows, err := ingest.ReadAssayRows(assayFile)
			if err != nil {
				return err
			}

			rawFile, err := os.Open(rawPath)
			if err != nil {
				return fmt.Errorf("failed to open raw data: %w", err)
			}
			defer rawFile.Close()
			rawRows, err := ingest.ReadRawRows(rawFile)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			opts := annotate.Options{}
			if cmd.Flags().Changed("prior-asid") {
				opts.PriorASID = &priorASID
			}
			asid, err := annotate.LoadAnnotations(store, plateRows, assayRows, opts)
			if err != nil {
				return err
			}

			records, err := prepare.PrepareForLoad(store, asid, rawRows)
			if err != nil {
				return err
			}
			if err := store.InsertLevel0(records); err != nil {
				return err
			}

			if assignDefaults {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				if err := newCatalog(cfg).AssignDefaults(store, asid); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "study %d: %d wells annotated, %d level-0 records loaded\n",
				asid, len(plateRows), len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&platePath, "plate", "", "Plate metadata CSV")
	cmd.Flags().StringVar(&assayPath, "assay", "", "Assay metadata CSV")
	cmd.Flags().StringVar(&rawPath, "raw", "", "Raw measurement CSV")
	cmd.Flags().Int64Var(&priorASID, "prior-asid", 0, "Explicitly overwrite this existing study id")
	cmd.Flags().BoolVar(&assignDefaults, "assign-defaults", true, "Assign default methods to the new study's endpoints")
	cmd.MarkFlagRequired("plate")
	cmd.MarkFlagRequired("assay")
	cmd.MarkFlagRequired("raw")

	return cmd
}
