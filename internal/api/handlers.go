// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/motioncam/internal/catalog"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/go-chi/chi/v5"
)

// maxListLimit bounds /segments?limit.
const maxListLimit = 1000

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

func (s *Server) handleCameras(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Cameras.Statuses())
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	st, ok := s.deps.Cameras.Status(chi.URLParam(r, "name"))
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	name, ok := s.liveCamera(w, r)
	if !ok {
		return
	}
	s.deps.Live.ServeSnapshot(w, r, name)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	name, ok := s.liveCamera(w, r)
	if !ok {
		return
	}
	s.deps.Live.ServeWebsocket(w, r.WithContext(log.ContextWithCamera(r.Context(), name)), name)
}

// liveCamera resolves {name} for the live view routes and writes the error
// response when the camera or the presentation surface is missing.
func (s *Server) liveCamera(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if _, ok := s.deps.Cameras.Status(name); !ok {
		writeNotFound(w)
		return "", false
	}
	if s.deps.Live == nil {
		writeServiceUnavailable(w, "display is disabled")
		return "", false
	}
	return name, true
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Segments == nil {
		writeServiceUnavailable(w, "catalog is disabled")
		return
	}

	q := r.URL.Query()
	f := catalog.Filter{
		Camera:  q.Get("camera"),
		Outcome: segment.Outcome(q.Get("outcome")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		f.Limit = min(n, maxListLimit)
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be RFC 3339")
			return
		}
		f.Since = t
	}
	if f.Outcome != "" && !f.Outcome.Valid() {
		writeBadRequest(w, "unknown outcome")
		return
	}

	recs, err := s.deps.Segments.List(r.Context(), f)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if recs == nil {
		recs = []segment.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleSegmentCounts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Segments == nil {
		writeServiceUnavailable(w, "catalog is disabled")
		return
	}
	counts, err := s.deps.Segments.Counts(r.Context(), r.URL.Query().Get("camera"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// handleInterrupt stops the process the same way the interactive quit key does.
func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	if s.deps.Live == nil {
		writeServiceUnavailable(w, "display is disabled")
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(log.FieldEvent, "api.interrupt").Msg("interrupt requested")
	s.deps.Live.Interrupt()
	w.WriteHeader(http.StatusAccepted)
}
