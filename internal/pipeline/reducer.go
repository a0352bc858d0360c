package pipeline

import (
	"teko/internal/services"
	"teko/internal/services/vision"
)

// errNoExactMatch is recorded when the catalog yields no candidate.
var errNoExactMatch = services.Wrap(services.ErrNoMatch, string(StageSearching), "match master", "no exact match", nil)

// Reduce applies ev to s and returns the next state. Events that do not
// apply to the current stage, and effect outcomes from an older generation,
// leave the state unchanged.
func Reduce(s State, ev Event) State {
	if s.Stage.Terminal() {
		return s
	}
	if g, ok := ev.(generational); ok && g.generation() != s.Generation {
		return s
	}

	switch e := ev.(type) {
	case ImageCaptured:
		if s.Stage != StageCapture || e.Size <= 0 {
			return s
		}
		s.Stage = StageIdentifying
	case Identified:
		if s.Stage != StageIdentifying {
			return s
		}
		guess := e.Guess
		s.Guess = &guess
		s.Stage = StageSearching
	case Matched:
		if s.Stage != StageSearching {
			return s
		}
		if e.Match == nil {
			return fail(s, StageSearching, errNoExactMatch)
		}
		match := *e.Match
		s.Match = &match
		s.Stage = StageSaving
	case VersionResolved:
		if s.Stage != StageSaving {
			return s
		}
		if e.Version != nil {
			version := *e.Version
			s.Version = &version
		}
		s.Warning = e.Warning
	case Saved:
		if s.Stage != StageSaving && s.Stage != StageManual {
			return s
		}
		if e.Record == nil {
			return s
		}
		record := *e.Record
		s.Record = &record
		s.Failure = nil
		s.Stage = StageSuccess
	case Failed:
		if e.Err == nil || e.Stage != s.Stage {
			return s
		}
		switch s.Stage {
		case StageCapture, StageIdentifying, StageSearching, StageSaving:
			return fail(s, e.Stage, e.Err)
		case StageManual:
			s.Failure = newFailure(StageManual, e.Err)
		default:
			return s
		}
	case SuccessElapsed:
		if s.Stage != StageSuccess {
			return s
		}
		s.Stage = StageClosed
		s.Generation++
	case Retry:
		if s.Stage != StageError {
			return s
		}
		s = s.clearIntermediate()
		s.Stage = StageCapture
		s.Generation++
	case EnterManual:
		if s.Stage != StageError {
			return s
		}
		s.ManualForm = seedManualForm(s.Guess)
		s.Match = nil
		s.Version = nil
		s.Record = nil
		s.Failure = nil
		s.Warning = ""
		s.Stage = StageManual
	case Dismiss:
		s.Stage = StageClosed
		s.Generation++
	}
	return s
}

func fail(s State, stage Stage, err error) State {
	s.Failure = newFailure(stage, err)
	s.Stage = StageError
	return s
}

func newFailure(stage Stage, err error) *Failure {
	return &Failure{
		Kind:    services.Classify(err),
		Stage:   stage,
		Message: UserMessage(err),
		Detail:  err.Error(),
		Actions: RecoveryActions(),
	}
}

func seedManualForm(guess *vision.Guess) *ManualForm {
	form := &ManualForm{}
	if guess != nil {
		form.Artist = guess.ArtistOrEmpty()
		form.AlbumTitle = guess.AlbumTitleOrEmpty()
	}
	return form
}
