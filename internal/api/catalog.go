package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"teko/internal/services"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w, r) {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeError(w, r, fmt.Errorf("%w: q is required", errBadRequest))
		return
	}
	page, err := pageParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.catalog.SearchMasters(r.Context(), q, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleMaster(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w, r) {
		return
	}
	id, err := masterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	master, err := s.catalog.MasterDetails(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, master)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w, r) {
		return
	}
	id, err := masterID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	versions, err := s.catalog.ListVersions(r.Context(), id, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, versions)
}

func (s *Server) catalogReady(w http.ResponseWriter, r *http.Request) bool {
	if s.catalog != nil {
		return true
	}
	s.writeError(w, r, services.Wrap(services.ErrConfiguration, "", "discogs", "catalog not configured", nil))
	return false
}

func masterID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid master id %q", errBadRequest, raw)
	}
	return id, nil
}

func pageParam(r *http.Request) (int, error) {
	page, err := intParam(r.URL.Query().Get("page"))
	if err != nil {
		return 0, err
	}
	if page == 0 {
		page = 1
	}
	return page, nil
}
