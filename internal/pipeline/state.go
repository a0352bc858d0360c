package pipeline

import (
	"teko/internal/collection"
	"teko/internal/services"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

// Stage enumerates the visible phases of a run.
type Stage string

const (
	StageCapture     Stage = "capture"
	StageIdentifying Stage = "identifying"
	StageSearching   Stage = "searching"
	StageSaving      Stage = "saving"
	StageSuccess     Stage = "success"
	StageError       Stage = "error"
	StageManual      Stage = "manual"
	StageClosed      Stage = "closed"
)

// Busy reports whether a side effect is outstanding in this stage.
func (s Stage) Busy() bool {
	switch s {
	case StageIdentifying, StageSearching, StageSaving:
		return true
	default:
		return false
	}
}

// Terminal reports whether the run accepts no further events.
func (s Stage) Terminal() bool { return s == StageClosed }

// Action is a recovery option offered after a failure.
type Action string

const (
	ActionRetry  Action = "retry"
	ActionManual Action = "manual"
)

// RecoveryActions is the fixed set offered on every failure.
func RecoveryActions() []Action {
	return []Action{ActionRetry, ActionManual}
}

// Failure describes why a run stopped.
type Failure struct {
	Kind    services.FailureKind `json:"kind"`
	Stage   Stage                `json:"stage"`
	Message string               `json:"message"`
	Detail  string               `json:"detail,omitempty"`
	Actions []Action             `json:"actions"`
}

// ManualForm holds the prefilled manual entry fields.
type ManualForm struct {
	Artist     string `json:"artist"`
	AlbumTitle string `json:"albumTitle"`
}

// State is the complete snapshot of a run.
type State struct {
	Stage      Stage              `json:"stage"`
	Generation uint64             `json:"generation"`
	Guess      *vision.Guess      `json:"guess,omitempty"`
	Match      *discogs.Match     `json:"match,omitempty"`
	Version    *discogs.Version   `json:"version,omitempty"`
	Record     *collection.Record `json:"record,omitempty"`
	Failure    *Failure           `json:"failure,omitempty"`
	Warning    string             `json:"warning,omitempty"`
	ManualForm *ManualForm        `json:"manualForm,omitempty"`
}

// Initial returns the state of a freshly opened run.
func Initial() State {
	return State{Stage: StageCapture}
}

// clearIntermediate drops everything derived from a previous attempt.
func (s State) clearIntermediate() State {
	s.Guess = nil
	s.Match = nil
	s.Version = nil
	s.Record = nil
	s.Failure = nil
	s.Warning = ""
	s.ManualForm = nil
	return s
}
