package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"teko/internal/auth"
	"teko/internal/capture"
	"teko/internal/collection"
	"teko/internal/logging"
	"teko/internal/notifications"
	"teko/internal/services"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

// DefaultSuccessDelay is how long the success state stays visible.
const DefaultSuccessDelay = 1500 * time.Millisecond

const notifyTimeout = 10 * time.Second

var (
	// ErrInvalidStage is returned when a command does not apply to the current stage.
	ErrInvalidStage = errors.New("pipeline: command not valid in current stage")
	// ErrBusy is returned when a run already has an attempt in flight.
	ErrBusy = errors.New("pipeline: run is busy")
)

// Identifier recognises a record from a sleeve photo.
type Identifier interface {
	Identify(ctx context.Context, image []byte, contentType string) (vision.Guess, error)
}

// Matcher resolves a guess to a catalog master and lists its pressings.
type Matcher interface {
	MatchMaster(ctx context.Context, artist, albumTitle string) (*discogs.Match, error)
	ListVersions(ctx context.Context, masterID int64, page int) (*discogs.VersionPage, error)
}

// Recorder persists collection records.
type Recorder interface {
	Create(ctx context.Context, ownerID string, draft collection.Draft) (*collection.Record, error)
}

var (
	_ Identifier = (*vision.Client)(nil)
	_ Matcher    = (*discogs.Client)(nil)
	_ Recorder   = (*collection.Store)(nil)
)

// Options wires a Runner to its collaborators.
type Options struct {
	Identifier Identifier
	Matcher    Matcher
	Recorder   Recorder
	// Session resolves the owner at the start of an attempt and again before
	// the write. Defaults to auth.ContextSession.
	Session  auth.SessionFunc
	Notifier notifications.Service
	Logger   *slog.Logger
	// SuccessDelay auto-dismisses a successful run. Zero or negative keeps
	// the run open until dismissed.
	SuccessDelay time.Duration
	// OnClose is invoked once when the run reaches the closed stage.
	OnClose func(id string)
}

// Runner owns one identification run. Only the runner mutates its state.
type Runner struct {
	id     string
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	running bool
	timer   *time.Timer
}

// NewRunner opens a run in the capture stage.
func NewRunner(id string, opts Options) *Runner {
	if opts.Session == nil {
		opts.Session = auth.ContextSession
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	ctx, cancel := context.WithCancel(services.WithPipelineID(context.Background(), id))
	logger := logging.NewComponentLogger(opts.Logger, "pipeline").With(logging.String(logging.FieldPipelineID, id))
	return &Runner{
		id:     id,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		state:  Initial(),
	}
}

// ID returns the run identifier.
func (r *Runner) ID() string { return r.id }

// State returns a snapshot of the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Capture takes a photo from src and drives the run until it succeeds, fails
// or is dismissed. Pipeline failures are reported in the returned state; the
// error is only set when the run cannot accept a capture.
func (r *Runner) Capture(ctx context.Context, src capture.Source) (State, error) {
	gen, err := r.begin(StageCapture)
	if err != nil {
		return r.State(), err
	}
	defer r.end()

	ctx, cancel := r.attemptContext(ctx)
	defer cancel()

	if src == nil {
		r.dispatch(Failed{Generation: gen, Stage: StageCapture, Err: capture.ErrEmptyImage})
		return r.State(), nil
	}
	session, err := r.session(ctx)
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageCapture, Err: err})
		return r.State(), nil
	}
	ctx = services.WithUserID(ctx, session.UserID)

	shot, err := src.Capture(ctx)
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageCapture, Err: err})
		return r.State(), nil
	}
	if !r.advance(ImageCaptured{Generation: gen, Size: shot.Size()}, gen, StageIdentifying) {
		return r.State(), nil
	}

	guess, err := r.identify(ctx, shot)
	shot = capture.Result{}
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageIdentifying, Err: err})
		return r.State(), nil
	}
	if !r.advance(Identified{Generation: gen, Guess: guess}, gen, StageSearching) {
		return r.State(), nil
	}

	match, err := r.opts.Matcher.MatchMaster(services.WithStage(ctx, string(StageSearching)), guess.ArtistOrEmpty(), guess.AlbumTitleOrEmpty())
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageSearching, Err: err})
		return r.State(), nil
	}
	if !r.advance(Matched{Generation: gen, Match: match}, gen, StageSaving) {
		return r.State(), nil
	}

	saveCtx := services.WithStage(ctx, string(StageSaving))
	version, warning := r.firstVersion(saveCtx, match)
	if !r.advance(VersionResolved{Generation: gen, Version: version, Warning: warning}, gen, StageSaving) {
		return r.State(), nil
	}

	session, err = r.session(saveCtx)
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageSaving, Err: err})
		return r.State(), nil
	}
	record, err := r.opts.Recorder.Create(saveCtx, session.UserID, DeriveDraft(guess, match, version))
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageSaving, Err: err})
		return r.State(), nil
	}
	r.dispatch(Saved{Generation: gen, Record: record})
	return r.State(), nil
}

// SubmitManual persists a user-entered draft from the manual stage. An
// invalid draft or failed write keeps the run in manual with the failure set.
func (r *Runner) SubmitManual(ctx context.Context, draft collection.Draft) (State, error) {
	gen, err := r.begin(StageManual)
	if err != nil {
		return r.State(), err
	}
	defer r.end()

	ctx, cancel := r.attemptContext(ctx)
	defer cancel()
	ctx = services.WithStage(ctx, string(StageManual))

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageManual, Err: err})
		return r.State(), nil
	}
	session, err := r.session(ctx)
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageManual, Err: err})
		return r.State(), nil
	}
	record, err := r.opts.Recorder.Create(ctx, session.UserID, draft)
	if err != nil {
		r.dispatch(Failed{Generation: gen, Stage: StageManual, Err: err})
		return r.State(), nil
	}
	r.dispatch(Saved{Generation: gen, Record: record})
	return r.State(), nil
}

// Retry returns a failed run to capture with all intermediate state cleared.
func (r *Runner) Retry() (State, error) {
	return r.command(Retry{}, StageError)
}

// EnterManual switches a failed run to manual entry.
func (r *Runner) EnterManual() (State, error) {
	return r.command(EnterManual{}, StageError)
}

// Dismiss closes the run. In-flight effects are cancelled and their results
// discarded. Dismissing a closed run is a no-op.
func (r *Runner) Dismiss() State {
	return r.dispatch(Dismiss{})
}

func (r *Runner) command(ev Event, allowed Stage) (State, error) {
	r.mu.Lock()
	if r.state.Stage != allowed || r.running {
		state := r.state
		r.mu.Unlock()
		return state, fmt.Errorf("%w: %s", ErrInvalidStage, state.Stage)
	}
	r.mu.Unlock()
	return r.dispatch(ev), nil
}

func (r *Runner) begin(want Stage) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return 0, ErrBusy
	}
	if r.state.Stage != want {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStage, r.state.Stage)
	}
	r.running = true
	return r.state.Generation, nil
}

func (r *Runner) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// attemptContext is cancelled when either the caller's context ends or the
// run is dismissed.
func (r *Runner) attemptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(services.WithPipelineID(parent, r.id))
	stop := context.AfterFunc(r.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (r *Runner) session(ctx context.Context) (auth.Session, error) {
	session, err := r.opts.Session(ctx)
	if err != nil {
		return auth.Session{}, err
	}
	if session.UserID == "" {
		return auth.Session{}, auth.ErrUnauthorized
	}
	return session, nil
}

func (r *Runner) identify(ctx context.Context, shot capture.Result) (vision.Guess, error) {
	ctx = services.WithStage(ctx, string(StageIdentifying))
	started := time.Now()
	guess, err := r.opts.Identifier.Identify(ctx, shot.Data, shot.ContentType)
	if err != nil {
		return vision.Guess{}, err
	}
	logging.WithContext(ctx, r.logger).Debug("photo identified",
		logging.String("artist", guess.ArtistOrEmpty()),
		logging.String("album_title", guess.AlbumTitleOrEmpty()),
		logging.Duration("latency", time.Since(started)),
	)
	return guess, nil
}

// firstVersion fetches page one of the master's pressings. A failed lookup is
// not fatal: the save proceeds without pressing details and the state
// carries a warning.
func (r *Runner) firstVersion(ctx context.Context, match *discogs.Match) (*discogs.Version, string) {
	if match == nil || match.MasterID <= 0 {
		return nil, ""
	}
	page, err := r.opts.Matcher.ListVersions(ctx, match.MasterID, 1)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "versions lookup failed", "versions_lookup_failed",
			logging.Error(err),
			logging.Int64("master_id", match.MasterID),
			logging.String(logging.FieldErrorHint, "check Discogs availability and rate limits"),
			logging.String(logging.FieldImpact, "record saved without pressing details"),
		)
		return nil, MsgVersionsSkipped
	}
	if page == nil || len(page.Versions) == 0 {
		return nil, ""
	}
	version := page.Versions[0]
	return &version, ""
}

// advance dispatches ev and reports whether the run is still on generation
// gen in stage want.
func (r *Runner) advance(ev Event, gen uint64, want Stage) bool {
	next := r.dispatch(ev)
	return next.Generation == gen && next.Stage == want
}

func (r *Runner) dispatch(ev Event) State {
	r.mu.Lock()
	prev := r.state
	next := Reduce(prev, ev)
	r.state = next
	r.mu.Unlock()

	if prev.Stage != next.Stage || prev.Generation != next.Generation {
		r.afterTransition(prev, next)
	}
	return next
}

func (r *Runner) afterTransition(prev, next State) {
	logger := r.logger.With(logging.String(logging.FieldStage, string(next.Stage)))
	logger.Info("pipeline transition",
		logging.String("from", string(prev.Stage)),
		logging.String("to", string(next.Stage)),
		logging.Int64("generation", int64(next.Generation)),
	)

	switch next.Stage {
	case StageError:
		if next.Failure != nil {
			logging.WarnWithContext(logger, "pipeline failed", "pipeline_failed",
				logging.String("failed_stage", string(next.Failure.Stage)),
				logging.String("failure_kind", string(next.Failure.Kind)),
				logging.String(logging.FieldErrorHint, next.Failure.Detail),
				logging.String(logging.FieldImpact, "user offered retry or manual entry"),
			)
			r.notify(notifications.EventPipelineFailed, notifications.Payload{
				"stage": string(next.Failure.Stage),
				"error": next.Failure.Message,
			})
		}
	case StageSuccess:
		if next.Record != nil {
			source := "photo"
			if prev.Stage == StageManual {
				source = "manual"
			}
			logger.Info("record added",
				logging.String("record_id", next.Record.ID),
				logging.String("source", source),
			)
			r.notify(notifications.EventRecordAdded, notifications.Payload{
				"artist":     next.Record.Artist,
				"albumTitle": next.Record.AlbumTitle,
				"year":       next.Record.ReleaseYear,
				"source":     source,
			})
		}
		r.scheduleDismiss(next.Generation)
	case StageClosed:
		r.close()
	}
}

func (r *Runner) scheduleDismiss(gen uint64) {
	if r.opts.SuccessDelay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.opts.SuccessDelay, func() {
		r.dispatch(SuccessElapsed{Generation: gen})
	})
}

func (r *Runner) close() {
	r.cancel()
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()
	if r.opts.OnClose != nil {
		r.opts.OnClose(r.id)
	}
}

// notify publishes in the background so a slow ntfy server never holds up
// the transition that triggered it.
func (r *Runner) notify(event notifications.Event, payload notifications.Payload) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := r.opts.Notifier.Publish(ctx, event, payload); err != nil {
			logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
				logging.String("event", string(event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check ntfy topic configuration"),
				logging.String(logging.FieldImpact, "push notification not delivered"),
			)
		}
	}()
}
