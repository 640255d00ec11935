// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/ManuGH/canplay/internal/auth"
	"github.com/ManuGH/canplay/internal/log"
)

// requireToken enforces the API token on write routes when one is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")
		reqToken := auth.ExtractToken(r)
		if reqToken == "" {
			logger.Warn().Str(log.FieldEvent, "auth.missing_header").Msg("authorization header missing")
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "missing API token")
			return
		}
		if !auth.AuthorizeToken(reqToken, s.cfg.APIToken) {
			logger.Warn().Str(log.FieldEvent, "auth.invalid_token").Msg("invalid api token")
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "invalid API token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
