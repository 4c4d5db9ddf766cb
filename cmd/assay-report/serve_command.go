package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/banshee-data/assay.report/internal/api"
	"github.com/banshee-data/assay.report/internal/hcs/pipeline"
)

// newServeCommand starts the HTTP query surface with the admin debug routes
// attached.
func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runner := pipeline.NewRunner(store, newCatalog(cfg))
			mux := api.NewServer(store, runner).ServeMux()
			if cfg.Server.DebugSQL {
				store.AttachAdminRoutes(mux)
			}

			log.Printf("listening on %s", listen)
			return http.ListenAndServe(listen, api.LoggingMiddleware(mux))
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	return cmd
}
