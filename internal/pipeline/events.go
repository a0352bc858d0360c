package pipeline

import (
	"teko/internal/collection"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

// Event is an input to Reduce. Effect outcomes carry the generation of the
// attempt that produced them; user commands do not.
type Event interface {
	isEvent()
}

// generational is implemented by effect outcomes.
type generational interface {
	generation() uint64
}

// ImageCaptured reports a validated, non-empty photo.
type ImageCaptured struct {
	Generation uint64
	Size       int
}

// Identified carries the vision guess. Both fields may be nil.
type Identified struct {
	Generation uint64
	Guess      vision.Guess
}

// Matched carries the catalog lookup result. A nil Match means no candidate.
type Matched struct {
	Generation uint64
	Match      *discogs.Match
}

// VersionResolved carries the first pressing, or a warning when the lookup
// failed. Both may be empty when the master lists no versions.
type VersionResolved struct {
	Generation uint64
	Version    *discogs.Version
	Warning    string
}

// Saved reports a persisted record.
type Saved struct {
	Generation uint64
	Record     *collection.Record
}

// Failed reports an effect or input failure raised while in Stage.
type Failed struct {
	Generation uint64
	Stage      Stage
	Err        error
}

// SuccessElapsed fires when the success banner delay has passed.
type SuccessElapsed struct {
	Generation uint64
}

// Retry restarts the run from capture after a failure.
type Retry struct{}

// EnterManual switches a failed run to manual entry.
type EnterManual struct{}

// Dismiss closes the run from any stage.
type Dismiss struct{}

func (ImageCaptured) isEvent()   {}
func (Identified) isEvent()      {}
func (Matched) isEvent()         {}
func (VersionResolved) isEvent() {}
func (Saved) isEvent()           {}
func (Failed) isEvent()          {}
func (SuccessElapsed) isEvent()  {}
func (Retry) isEvent()           {}
func (EnterManual) isEvent()     {}
func (Dismiss) isEvent()         {}

func (e ImageCaptured) generation() uint64   { return e.Generation }
func (e Identified) generation() uint64      { return e.Generation }
func (e Matched) generation() uint64         { return e.Generation }
func (e VersionResolved) generation() uint64 { return e.Generation }
func (e Saved) generation() uint64           { return e.Generation }
func (e Failed) generation() uint64          { return e.Generation }
func (e SuccessElapsed) generation() uint64  { return e.Generation }
