package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"teko/internal/auth"
	"teko/internal/collection"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := s.store.List(r.Context(), session.UserID, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*collection.Record{}
	}
	s.writeJSON(w, http.StatusOK, RecordListResponse{Records: records, Count: len(records)})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var draft collection.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		s.writeError(w, r, err)
		return
	}
	record, err := s.store.Create(r.Context(), session.UserID, draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, RecordResponse{Record: record})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	record, err := s.store.Get(r.Context(), session.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecordResponse{Record: record})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var draft collection.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		s.writeError(w, r, err)
		return
	}
	record, err := s.store.Update(r.Context(), session.UserID, chi.URLParam(r, "id"), draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecordResponse{Record: record})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), session.UserID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	session, err := auth.ContextSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.store.Stats(r.Context(), session.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func parseFilter(r *http.Request) (collection.Filter, error) {
	query := r.URL.Query()
	order, err := collection.ParseSortOrder(query.Get("sort"))
	if err != nil {
		return collection.Filter{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	filter := collection.Filter{
		Query:  strings.TrimSpace(query.Get("q")),
		Artist: strings.TrimSpace(query.Get("artist")),
		Genre:  strings.TrimSpace(query.Get("genre")),
		Sort:   order,
	}
	if filter.Limit, err = intParam(query.Get("limit")); err != nil {
		return collection.Filter{}, err
	}
	if filter.Offset, err = intParam(query.Get("offset")); err != nil {
		return collection.Filter{}, err
	}
	return filter, nil
}

func intParam(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid number %q", errBadRequest, value)
	}
	return n, nil
}
