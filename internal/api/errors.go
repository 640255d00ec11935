// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/canplay/internal/log"
)

// Error codes carried in the "error" field.
const (
	codeBadRequest       = "bad_request"
	codeMissingType      = "missing_type"
	codeBatchTooLarge    = "batch_too_large"
	codeRateLimited      = "rate_limit_exceeded"
	codeUnauthorized     = "unauthorized"
	codeUnknownFlag      = "unknown_flag"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal_error"
	codeStoreUnavailable = "flag_store_unavailable"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Str(log.FieldEvent, "api.error").
			Str("code", code).
			Int(log.FieldStatus, status).
			Msg(detail)
	}
	writeJSON(w, status, ErrorBody{
		Error:     code,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}
