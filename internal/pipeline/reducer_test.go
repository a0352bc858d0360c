package pipeline_test

import (
	"errors"
	"testing"

	"teko/internal/collection"
	"teko/internal/pipeline"
	"teko/internal/services"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

func strPtr(s string) *string { return &s }

func TestReduceHappyPath(t *testing.T) {
	s := pipeline.Initial()
	s = pipeline.Reduce(s, pipeline.ImageCaptured{Size: 42})
	if s.Stage != pipeline.StageIdentifying {
		t.Fatalf("expected identifying, got %s", s.Stage)
	}
	s = pipeline.Reduce(s, pipeline.Identified{Guess: vision.Guess{Artist: strPtr("Can"), AlbumTitle: strPtr("Tago Mago")}})
	if s.Stage != pipeline.StageSearching || s.Guess == nil {
		t.Fatalf("expected searching with guess, got %+v", s)
	}
	s = pipeline.Reduce(s, pipeline.Matched{Match: &discogs.Match{MasterID: 7, Artist: "Can", AlbumTitle: "Tago Mago"}})
	if s.Stage != pipeline.StageSaving {
		t.Fatalf("expected saving, got %s", s.Stage)
	}
	s = pipeline.Reduce(s, pipeline.VersionResolved{Version: &discogs.Version{ID: 9, Label: "United Artists"}})
	if s.Stage != pipeline.StageSaving || s.Version == nil || s.Version.ID != 9 {
		t.Fatalf("expected version recorded while saving, got %+v", s)
	}
	s = pipeline.Reduce(s, pipeline.Saved{Record: &collection.Record{ID: "r1"}})
	if s.Stage != pipeline.StageSuccess || s.Record == nil || s.Record.ID != "r1" {
		t.Fatalf("expected success with record, got %+v", s)
	}
	s = pipeline.Reduce(s, pipeline.SuccessElapsed{Generation: s.Generation})
	if s.Stage != pipeline.StageClosed {
		t.Fatalf("expected closed after success delay, got %s", s.Stage)
	}
}

func TestReduceIgnoresEmptyCapture(t *testing.T) {
	s := pipeline.Reduce(pipeline.Initial(), pipeline.ImageCaptured{Size: 0})
	if s.Stage != pipeline.StageCapture {
		t.Fatalf("empty capture must not advance, got %s", s.Stage)
	}
}

func TestReduceNullGuessStillSearches(t *testing.T) {
	s := pipeline.State{Stage: pipeline.StageIdentifying}
	s = pipeline.Reduce(s, pipeline.Identified{Guess: vision.Guess{}})
	if s.Stage != pipeline.StageSearching {
		t.Fatalf("expected searching for null guess, got %s", s.Stage)
	}
	s = pipeline.Reduce(s, pipeline.Matched{Match: nil})
	if s.Stage != pipeline.StageError {
		t.Fatalf("expected error on no match, got %s", s.Stage)
	}
	if s.Failure == nil || s.Failure.Message != pipeline.MsgNoMatch {
		t.Fatalf("expected no-match failure, got %+v", s.Failure)
	}
	if s.Failure.Kind != services.FailureNoMatch {
		t.Fatalf("expected no_match kind, got %s", s.Failure.Kind)
	}
	if len(s.Failure.Actions) != 2 || s.Failure.Actions[0] != pipeline.ActionRetry || s.Failure.Actions[1] != pipeline.ActionManual {
		t.Fatalf("expected retry and manual actions, got %v", s.Failure.Actions)
	}
}

func TestReduceDropsStaleGenerations(t *testing.T) {
	s := pipeline.State{Stage: pipeline.StageIdentifying, Generation: 3}
	next := pipeline.Reduce(s, pipeline.Identified{Generation: 2, Guess: vision.Guess{Artist: strPtr("Old")}})
	if next.Stage != pipeline.StageIdentifying || next.Guess != nil {
		t.Fatalf("stale event applied: %+v", next)
	}
}

func TestReduceIgnoresEventsForOtherStages(t *testing.T) {
	s := pipeline.State{Stage: pipeline.StageSearching}
	next := pipeline.Reduce(s, pipeline.Saved{Record: &collection.Record{ID: "x"}})
	if next.Stage != pipeline.StageSearching || next.Record != nil {
		t.Fatalf("saved applied outside saving: %+v", next)
	}
	next = pipeline.Reduce(s, pipeline.Failed{Stage: pipeline.StageIdentifying, Err: errors.New("late")})
	if next.Stage != pipeline.StageSearching {
		t.Fatalf("failure from another stage applied: %+v", next)
	}
	if next := pipeline.Reduce(s, pipeline.Retry{}); next.Stage != pipeline.StageSearching || next.Generation != 0 {
		t.Fatalf("retry applied outside error: %+v", next)
	}
}

func TestReduceRetryClearsEverything(t *testing.T) {
	s := pipeline.State{
		Stage:      pipeline.StageError,
		Generation: 4,
		Guess:      &vision.Guess{Artist: strPtr("Pink Floyd")},
		Match:      &discogs.Match{MasterID: 10362},
		Version:    &discogs.Version{ID: 1},
		Record:     &collection.Record{ID: "r"},
		Failure:    &pipeline.Failure{Message: "boom"},
		Warning:    "warn",
		ManualForm: &pipeline.ManualForm{Artist: "x"},
	}
	next := pipeline.Reduce(s, pipeline.Retry{})
	if next.Stage != pipeline.StageCapture {
		t.Fatalf("expected capture, got %s", next.Stage)
	}
	if next.Generation != 5 {
		t.Fatalf("expected generation bump, got %d", next.Generation)
	}
	if next.Guess != nil || next.Match != nil || next.Version != nil || next.Record != nil ||
		next.Failure != nil || next.Warning != "" || next.ManualForm != nil {
		t.Fatalf("retry leaked state: %+v", next)
	}
}

func TestReduceEnterManualSeedsFromGuess(t *testing.T) {
	s := pipeline.State{
		Stage:   pipeline.StageError,
		Guess:   &vision.Guess{Artist: strPtr("Pink Floyd"), AlbumTitle: nil},
		Match:   &discogs.Match{MasterID: 1},
		Failure: &pipeline.Failure{Message: "boom"},
	}
	next := pipeline.Reduce(s, pipeline.EnterManual{})
	if next.Stage != pipeline.StageManual {
		t.Fatalf("expected manual, got %s", next.Stage)
	}
	if next.ManualForm == nil || next.ManualForm.Artist != "Pink Floyd" || next.ManualForm.AlbumTitle != "" {
		t.Fatalf("unexpected manual form: %+v", next.ManualForm)
	}
	if next.Match != nil || next.Failure != nil {
		t.Fatalf("manual must discard match and failure: %+v", next)
	}

	empty := pipeline.Reduce(pipeline.State{Stage: pipeline.StageError}, pipeline.EnterManual{})
	if empty.ManualForm == nil || empty.ManualForm.Artist != "" || empty.ManualForm.AlbumTitle != "" {
		t.Fatalf("expected empty manual form, got %+v", empty.ManualForm)
	}
}

func TestReduceManualFailureStaysInManual(t *testing.T) {
	s := pipeline.State{Stage: pipeline.StageManual, ManualForm: &pipeline.ManualForm{}}
	next := pipeline.Reduce(s, pipeline.Failed{Stage: pipeline.StageManual, Err: collection.ErrInvalidRecord})
	if next.Stage != pipeline.StageManual {
		t.Fatalf("expected manual, got %s", next.Stage)
	}
	if next.Failure == nil || next.Failure.Message != pipeline.MsgInvalidRecord {
		t.Fatalf("expected invalid record failure, got %+v", next.Failure)
	}
	next = pipeline.Reduce(next, pipeline.Saved{Record: &collection.Record{ID: "m"}})
	if next.Stage != pipeline.StageSuccess || next.Failure != nil {
		t.Fatalf("expected success clearing failure, got %+v", next)
	}
}

func TestReduceDismissFromAnyStage(t *testing.T) {
	stages := []pipeline.Stage{
		pipeline.StageCapture, pipeline.StageIdentifying, pipeline.StageSearching,
		pipeline.StageSaving, pipeline.StageSuccess, pipeline.StageError, pipeline.StageManual,
	}
	for _, stage := range stages {
		s := pipeline.State{Stage: stage, Generation: 1}
		next := pipeline.Reduce(s, pipeline.Dismiss{})
		if next.Stage != pipeline.StageClosed || next.Generation != 2 {
			t.Fatalf("dismiss from %s: got %+v", stage, next)
		}
		after := pipeline.Reduce(next, pipeline.Identified{Generation: 2})
		if after.Stage != pipeline.StageClosed {
			t.Fatalf("closed run accepted event: %+v", after)
		}
	}
}

func TestReduceSuccessElapsedRequiresCurrentGeneration(t *testing.T) {
	s := pipeline.State{Stage: pipeline.StageSuccess, Generation: 2}
	if next := pipeline.Reduce(s, pipeline.SuccessElapsed{Generation: 1}); next.Stage != pipeline.StageSuccess {
		t.Fatalf("stale timer closed the run: %+v", next)
	}
}
