// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/canplay/internal/flags"
	"github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// FlagsResponse is the current flag snapshot.
type FlagsResponse struct {
	Backend string          `json:"backend"`
	Flags   map[string]bool `json:"flags"`
}

// FlagResponse echoes one written flag.
type FlagResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type setFlagRequest struct {
	Enabled *bool `json:"enabled"`
}

// GET /api/v1/flags
func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	snap, err := s.flags.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, codeStoreUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, FlagsResponse{Backend: s.flags.Backend(), Flags: snap})
}

// PUT /api/v1/flags/{name} {"enabled": bool}
func (s *Server) handleSetFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req setFlagRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "field \"enabled\" is required")
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		telemetry.FlagAttributes(s.flags.Backend(), name, *req.Enabled)...)

	if err := s.flags.Set(r.Context(), name, *req.Enabled); err != nil {
		if errors.Is(err, flags.ErrUnknownFlag) {
			writeError(w, r, http.StatusNotFound, codeUnknownFlag, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "flags")

	logger.Info().
		Str(log.FieldEvent, "flag.updated").
		Str(log.FieldFlag, name).
		Bool("enabled", *req.Enabled).
		Str(log.FieldBackend, s.flags.Backend()).
		Msg("flag updated")

	writeJSON(w, http.StatusOK, FlagResponse{Name: name, Enabled: *req.Enabled})
}
