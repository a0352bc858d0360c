package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"teko/internal/daemonrun"
	"teko/internal/services/discogs"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Discogs masters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := daemonrun.NewCatalog(cfg)
			if err != nil {
				return err
			}
			resp, err := catalog.SearchMasters(cmd.Context(), strings.Join(args, " "), page)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Results) == 0 {
				fmt.Fprintln(out, "No masters found")
				return nil
			}
			fmt.Fprintln(out, renderSearchTable(resp.Results))
			fmt.Fprintln(out, pageFooter(resp.Pagination))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	var page int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "versions <master-id>",
		Short: "List pressings of a Discogs master",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			masterID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || masterID <= 0 {
				return fmt.Errorf("invalid master id %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := daemonrun.NewCatalog(cfg)
			if err != nil {
				return err
			}
			versions, err := catalog.ListVersions(cmd.Context(), masterID, page)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, versions)
			}
			out := cmd.OutOrStdout()
			if len(versions.Versions) == 0 {
				fmt.Fprintln(out, "No versions found")
				return nil
			}
			fmt.Fprintln(out, renderVersionTable(versions.Versions))
			fmt.Fprintln(out, pageFooter(versions.Pagination))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderSearchTable(results []discogs.SearchResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		artist, album := r.SplitTitle()
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			artist,
			album,
			r.Year,
			strings.Join(r.Genre, ", "),
		})
	}
	return renderTable([]tableColumn{
		{header: "Master", align: alignRight},
		{header: "Artist", maxWidth: 30},
		{header: "Title", maxWidth: 40},
		{header: "Year", align: alignRight},
		{header: "Genre", maxWidth: 30},
	}, rows)
}

func renderVersionTable(versions []discogs.Version) string {
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.Label,
			v.CatalogNo,
			v.Country,
			v.Released,
			v.Format,
		})
	}
	return renderTable([]tableColumn{
		{header: "Release", align: alignRight},
		{header: "Label", maxWidth: 30},
		{header: "Cat#", maxWidth: 20},
		{header: "Country", maxWidth: 16},
		{header: "Released"},
		{header: "Format", maxWidth: 30},
	}, rows)
}

func pageFooter(p discogs.Pagination) string {
	return fmt.Sprintf("Page %d of %d (%d items)", max(p.Page, 1), max(p.Pages, 1), p.Items)
}
