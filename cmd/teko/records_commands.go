package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teko/internal/collection"
	"teko/internal/config"
)

// draftFlags binds collection.Draft fields to command flags. Optional numeric
// fields are only set when their flag was given.
type draftFlags struct {
	cmd *cobra.Command

	artist       string
	title        string
	year         int
	cover        string
	genre        string
	masterID     int64
	releaseID    int64
	label        string
	country      string
	catalogNo    string
	condition    string
	purchaseDate string
	price        float64
	notes        string
}

func (f *draftFlags) register(cmd *cobra.Command, includeCore bool) {
	f.cmd = cmd
	fs := cmd.Flags()
	if includeCore {
		fs.StringVar(&f.artist, "artist", "", "Artist name")
		fs.StringVar(&f.title, "title", "", "Album title")
	}
	fs.IntVar(&f.year, "year", 0, "Release year")
	fs.StringVar(&f.cover, "cover", "", "Cover art URL")
	fs.StringVar(&f.genre, "genre", "", "Genre list, comma separated")
	fs.Int64Var(&f.masterID, "master-id", 0, "Discogs master ID")
	fs.Int64Var(&f.releaseID, "release-id", 0, "Discogs release ID")
	fs.StringVar(&f.label, "label", "", "Release label")
	fs.StringVar(&f.country, "country", "", "Release country")
	fs.StringVar(&f.catalogNo, "catno", "", "Release catalog number")
	fs.StringVar(&f.condition, "condition", "", "Condition grade")
	fs.StringVar(&f.purchaseDate, "purchased", "", "Purchase date (YYYY-MM-DD)")
	fs.Float64Var(&f.price, "price", 0, "Purchase price")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
}

func (f *draftFlags) changed(name string) bool {
	return f.cmd != nil && f.cmd.Flags().Changed(name)
}

func (f *draftFlags) draft() collection.Draft {
	d := collection.Draft{
		Artist:               f.artist,
		AlbumTitle:           f.title,
		CoverArtURL:          f.cover,
		Genre:                f.genre,
		ReleaseLabel:         f.label,
		ReleaseCountry:       f.country,
		ReleaseCatalogNumber: f.catalogNo,
		Condition:            f.condition,
		PurchaseDate:         f.purchaseDate,
		Notes:                f.notes,
	}
	if f.changed("year") {
		year := f.year
		d.ReleaseYear = &year
	}
	if f.changed("master-id") {
		id := f.masterID
		d.MasterID = &id
	}
	if f.changed("release-id") {
		id := f.releaseID
		d.ReleaseID = &id
	}
	if f.changed("price") {
		price := f.price
		d.Price = &price
	}
	return d
}

// apply overlays the flags that were given onto an existing draft.
func (f *draftFlags) apply(d collection.Draft) collection.Draft {
	next := f.draft()
	set := func(name string, dst *string, value string) {
		if f.changed(name) {
			*dst = value
		}
	}
	set("artist", &d.Artist, next.Artist)
	set("title", &d.AlbumTitle, next.AlbumTitle)
	set("cover", &d.CoverArtURL, next.CoverArtURL)
	set("genre", &d.Genre, next.Genre)
	set("label", &d.ReleaseLabel, next.ReleaseLabel)
	set("country", &d.ReleaseCountry, next.ReleaseCountry)
	set("catno", &d.ReleaseCatalogNumber, next.ReleaseCatalogNumber)
	set("condition", &d.Condition, next.Condition)
	set("purchased", &d.PurchaseDate, next.PurchaseDate)
	set("notes", &d.Notes, next.Notes)
	if next.ReleaseYear != nil {
		d.ReleaseYear = next.ReleaseYear
	}
	if next.MasterID != nil {
		d.MasterID = next.MasterID
	}
	if next.ReleaseID != nil {
		d.ReleaseID = next.ReleaseID
	}
	if next.Price != nil {
		d.Price = next.Price
	}
	return d
}

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record"},
		Short:   "Browse and edit the record collection",
	}
	cmd.AddCommand(newRecordsListCommand(ctx))
	cmd.AddCommand(newRecordsShowCommand(ctx))
	cmd.AddCommand(newRecordsAddCommand(ctx))
	cmd.AddCommand(newRecordsEditCommand(ctx))
	cmd.AddCommand(newRecordsDeleteCommand(ctx))
	return cmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var (
		query   string
		artist  string
		genre   string
		sort    string
		limit   int
		offset  int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List records in the collection",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := collection.ParseSortOrder(sort)
			if err != nil {
				return err
			}
			filter := collection.Filter{
				Query:  query,
				Artist: artist,
				Genre:  genre,
				Sort:   order,
				Limit:  limit,
				Offset: offset,
			}
			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				records, err := store.List(cmd.Context(), ctx.owner(), filter)
				if err != nil {
					return err
				}
				if jsonOut {
					if records == nil {
						records = []*collection.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No records found")
					return nil
				}
				fmt.Fprintln(out, renderRecordTable(records))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Search artist and title")
	cmd.Flags().StringVar(&artist, "artist", "", "Filter by artist")
	cmd.Flags().StringVar(&genre, "genre", "", "Filter by genre")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort order: newest, artist, title, year")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRecordsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				record, err := store.Get(cmd.Context(), ctx.owner(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, record)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRecord(record))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRecordsAddCommand(ctx *commandContext) *cobra.Command {
	var flags draftFlags
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				record, err := store.Create(cmd.Context(), ctx.owner(), flags.draft())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, record)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStatusLine(statusOK, "Added to collection", shouldColorize(out)))
				fmt.Fprintln(out, renderRecord(record))
				return nil
			})
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRecordsEditCommand(ctx *commandContext) *cobra.Command {
	var flags draftFlags
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields on a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				current, err := store.Get(cmd.Context(), ctx.owner(), id)
				if err != nil {
					return err
				}
				record, err := store.Update(cmd.Context(), ctx.owner(), id, flags.apply(current.Draft))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, record)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRecord(record))
				return nil
			})
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRecordsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a record from the collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				if err := store.Delete(cmd.Context(), ctx.owner(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %s\n", id)
				return nil
			})
		},
	}
}

func renderRecordTable(records []*collection.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.Artist,
			r.AlbumTitle,
			intString(r.ReleaseYear),
			r.Genre,
			r.ReleaseLabel,
		})
	}
	return renderTable([]tableColumn{
		{header: "ID", maxWidth: 36},
		{header: "Artist", maxWidth: 30},
		{header: "Title", maxWidth: 40},
		{header: "Year", align: alignRight},
		{header: "Genre", maxWidth: 24},
		{header: "Label", maxWidth: 24},
	}, rows)
}

func renderRecord(r *collection.Record) string {
	return renderKeyValues([][2]string{
		{"ID", r.ID},
		{"Artist", r.Artist},
		{"Title", r.AlbumTitle},
		{"Year", intString(r.ReleaseYear)},
		{"Genre", r.Genre},
		{"Label", r.ReleaseLabel},
		{"Country", r.ReleaseCountry},
		{"Catalog #", r.ReleaseCatalogNumber},
		{"Master ID", int64String(r.MasterID)},
		{"Release ID", int64String(r.ReleaseID)},
		{"Cover", r.CoverArtURL},
		{"Condition", r.Condition},
		{"Purchased", r.PurchaseDate},
		{"Price", priceString(r.Price)},
		{"Notes", r.Notes},
		{"Added", r.CreatedAt.Local().Format("2006-01-02 15:04")},
	})
}
