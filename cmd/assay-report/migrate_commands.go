package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStoreRaw()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.MigrateUp()
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStoreRaw()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.MigrateDown()
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStoreRaw()
			if err != nil {
				return err
			}
			defer store.Close()

			version, dirty, err := store.MigrateVersion()
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
			return nil
		},
	})

	var forceVersion int
	forceCmd := &cobra.Command{
		Use:   "force",
		Short: "Force the schema version after a failed migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStoreRaw()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.MigrateForce(forceVersion)
		},
	}
	forceCmd.Flags().IntVar(&forceVersion, "version", 0, "Schema version to force")
	forceCmd.MarkFlagRequired("version")
	migrateCmd.AddCommand(forceCmd)

	return migrateCmd
}
