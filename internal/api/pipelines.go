package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teko/internal/auth"
	"teko/internal/capture"
	"teko/internal/collection"
	"teko/internal/pipeline"
)

func (s *Server) handleOpenPipeline(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	run := s.registry.Open(session.UserID)
	s.writeJSON(w, http.StatusCreated, PipelineResponse{ID: run.ID(), State: run.State()})
}

func (s *Server) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, PipelineResponse{ID: run.ID(), State: run.State()})
}

// handleCapture reads the photo from the request body and runs the pipeline
// to a resting stage before responding.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	source := capture.ReaderSource{
		Reader:      r.Body,
		ContentType: r.Header.Get("Content-Type"),
		MaxBytes:    s.maxImageBytes,
	}
	state, err := run.Capture(r.Context(), source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PipelineResponse{ID: run.ID(), State: state})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, (*pipeline.Runner).Retry)
}

func (s *Server) handleEnterManual(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, (*pipeline.Runner).EnterManual)
}

func (s *Server) handleSubmitManual(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	var draft collection.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := run.SubmitManual(r.Context(), draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PipelineResponse{ID: run.ID(), State: state})
}

func (s *Server) handleDismissPipeline(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	state := run.Dismiss()
	s.writeJSON(w, http.StatusOK, PipelineResponse{ID: run.ID(), State: state})
}

func (s *Server) runCommand(w http.ResponseWriter, r *http.Request, command func(*pipeline.Runner) (pipeline.State, error)) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	state, err := command(run)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PipelineResponse{ID: run.ID(), State: state})
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*pipeline.Runner, bool) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	run, err := s.registry.Get(session.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return run, true
}
