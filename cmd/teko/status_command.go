package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"teko/internal/collection"
	"teko/internal/config"
	"teko/internal/daemonrun"
	"teko/internal/preflight"
	"teko/internal/services/discogs"
)

type statusReport struct {
	Owner  string             `json:"owner"`
	Checks []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, services and the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *collection.Store) error {
				var catalog discogs.Catalog
				if client, err := daemonrun.NewCatalog(cfg); err == nil {
					catalog = client
				}
				report := statusReport{Owner: ctx.owner()}
				report.Checks = append(report.Checks, preflight.CheckDaemon(cmd.Context(), cfg.Paths.APIBind))
				report.Checks = append(report.Checks, preflight.RunAll(cmd.Context(), cfg, catalog, store)...)

				if jsonOut {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Collection owner: %s\n", report.Owner)
				for _, check := range report.Checks {
					kind := statusOK
					if !check.Passed {
						kind = statusWarn
					}
					fmt.Fprintln(out, renderStatusLine(kind, check.Name+": "+check.Detail, colorize))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
