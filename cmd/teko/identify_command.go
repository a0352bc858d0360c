package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teko/internal/auth"
	"teko/internal/capture"
	"teko/internal/collection"
	"teko/internal/config"
	"teko/internal/daemonrun"
	"teko/internal/pipeline"
)

type identifyFlags struct {
	artist   string
	title    string
	draft    draftFlags
	jsonOut  bool
	noManual bool
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var flags identifyFlags

	cmd := &cobra.Command{
		Use:   "identify <photo>",
		Short: "Identify a record from a sleeve photo and add it to the collection",
		Long: `Identify a record from a sleeve photo and add it to the collection.

The photo is sent to the vision model, the guess is matched against Discogs
masters, and the first pressing is used to fill release details. When
identification fails and --artist and --title are given, the record is saved
from those values instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger(cfg)
			if err != nil {
				return err
			}
			catalog, err := daemonrun.NewCatalog(cfg)
			if err != nil {
				return err
			}

			return ctx.withStore(func(_ *config.Config, store *collection.Store) error {
				opts, err := daemonrun.PipelineOptions(cfg, store, catalog, logger)
				if err != nil {
					return err
				}
				opts.Session = auth.Fixed(ctx.owner())
				// The command dismisses the run itself once it has printed.
				opts.SuccessDelay = 0

				runner := pipeline.NewRunner("cli", opts)
				defer runner.Dismiss()

				state, err := runner.Capture(cmd.Context(), capture.FileSource{
					Path:     args[0],
					MaxBytes: cfg.Pipeline.MaxImageBytes,
				})
				if err != nil {
					return err
				}

				if state.Stage == pipeline.StageError && !flags.noManual && flags.manualRequested() {
					printFailure(cmd, state)
					if state, err = runner.EnterManual(); err != nil {
						return err
					}
					state, err = runner.SubmitManual(cmd.Context(), flags.manualDraft(state.ManualForm))
					if err != nil {
						return err
					}
				}
				return reportRun(cmd, state, flags.jsonOut)
			})
		},
	}

	cmd.Flags().StringVar(&flags.artist, "artist", "", "Artist to save if identification fails")
	cmd.Flags().StringVar(&flags.title, "title", "", "Album title to save if identification fails")
	cmd.Flags().BoolVar(&flags.noManual, "no-manual", false, "Do not fall back to manual entry")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Output the final run state as JSON")
	flags.draft.register(cmd, false)
	return cmd
}

func (f identifyFlags) manualRequested() bool {
	return strings.TrimSpace(f.artist) != "" || strings.TrimSpace(f.title) != ""
}

// manualDraft fills blank fallback fields from the manual form the run seeded
// from the vision guess.
func (f identifyFlags) manualDraft(form *pipeline.ManualForm) collection.Draft {
	draft := f.draft.draft()
	draft.Artist = f.artist
	draft.AlbumTitle = f.title
	if form != nil {
		if strings.TrimSpace(draft.Artist) == "" {
			draft.Artist = form.Artist
		}
		if strings.TrimSpace(draft.AlbumTitle) == "" {
			draft.AlbumTitle = form.AlbumTitle
		}
	}
	return draft
}

func reportRun(cmd *cobra.Command, state pipeline.State, jsonOut bool) error {
	if jsonOut {
		if err := writeJSON(cmd, state); err != nil {
			return err
		}
		return runError(state)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if state.Warning != "" {
		fmt.Fprintln(out, renderStatusLine(statusWarn, state.Warning, colorize))
	}
	switch state.Stage {
	case pipeline.StageSuccess:
		fmt.Fprintln(out, renderStatusLine(statusOK, "Added to collection", colorize))
		if state.Record != nil {
			fmt.Fprintln(out, renderRecord(state.Record))
		}
		return nil
	case pipeline.StageError, pipeline.StageManual:
		printFailure(cmd, state)
		return runError(state)
	default:
		fmt.Fprintln(out, renderStatusLine(statusInfo, "Run ended in stage "+string(state.Stage), colorize))
		return nil
	}
}

func printFailure(cmd *cobra.Command, state pipeline.State) {
	if state.Failure == nil {
		return
	}
	out := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	line := fmt.Sprintf("%s (%s)", state.Failure.Message, state.Failure.Stage)
	fmt.Fprintln(out, renderStatusLine(statusError, line, colorize))
	if state.Failure.Detail != "" {
		fmt.Fprintln(out, "  "+state.Failure.Detail)
	}
	if state.Stage == pipeline.StageError {
		fmt.Fprintln(out, "  Re-run the command, or pass --artist and --title to save it manually.")
	}
}

func runError(state pipeline.State) error {
	if state.Failure == nil || state.Stage == pipeline.StageSuccess {
		return nil
	}
	return fmt.Errorf("identification failed: %s", state.Failure.Message)
}
