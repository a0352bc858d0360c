package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"teko/internal/collection"
	"teko/internal/config"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				stats, err := store.Stats(cmd.Context(), ctx.owner())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Records: %d\n", stats.TotalRecords)
				fmt.Fprintf(out, "Spend:   %.2f\n", stats.TotalSpend)
				for _, section := range []struct {
					title  string
					counts []collection.Count
				}{
					{"Genre", stats.Genres},
					{"Decade", stats.Decades},
					{"Artist", stats.TopArtists},
				} {
					if len(section.counts) == 0 {
						continue
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderCounts(section.title, section.counts))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderCounts(label string, counts []collection.Count) string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.Count)})
	}
	return renderTable([]tableColumn{
		{header: label, maxWidth: 40},
		{header: "Records", align: alignRight},
	}, rows)
}
