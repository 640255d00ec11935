// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/canplay/internal/capability"
	"github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/metrics"
	"github.com/ManuGH/canplay/internal/telemetry"
)

const maxBatchBody = 1 << 20

// CanPlayResult is one answered query. Verdict uses the canPlayType wire
// form, so an unsupported type has an empty verdict.
type CanPlayResult struct {
	Type      string   `json:"type"`
	Verdict   string   `json:"verdict"`
	Reason    string   `json:"reason"`
	Container string   `json:"container"`
	Codecs    []string `json:"codecs"`
	Rejected  string   `json:"rejected,omitempty"`
}

type batchRequest struct {
	Types []string `json:"types"`
}

type batchResponse struct {
	Results []CanPlayResult `json:"results"`
}

// GET /api/v1/canplay?type=<mime>
func (s *Server) handleCanPlay(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if !values.Has("type") {
		writeError(w, r, http.StatusBadRequest, codeMissingType, "query parameter \"type\" is required")
		return
	}
	writeJSON(w, http.StatusOK, s.resolve(r.Context(), values.Get("type")))
}

// POST /api/v1/canplay {"types": [...]}
func (s *Server) handleCanPlayBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Types == nil {
		writeError(w, r, http.StatusBadRequest, codeMissingType, "field \"types\" is required")
		return
	}

	n := len(req.Types)
	if n > s.cfg.MaxBatch {
		writeError(w, r, http.StatusBadRequest, codeBatchTooLarge,
			fmt.Sprintf("batch of %d exceeds limit of %d", n, s.cfg.MaxBatch))
		return
	}
	if wait, ok := s.admitBatch(n); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeError(w, r, http.StatusTooManyRequests, codeRateLimited,
			fmt.Sprintf("batch of %d exceeds available query budget", n))
		return
	}
	metrics.ObserveBatch(n)

	results := make([]CanPlayResult, n)
	for i, mime := range req.Types {
		results[i] = s.resolve(r.Context(), mime)
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// admitBatch charges n queries against the batch limiter. When the budget
// is short it reports how long the caller should wait and charges nothing.
func (s *Server) admitBatch(n int) (time.Duration, bool) {
	if n == 0 {
		return 0, true
	}
	now := time.Now()
	res := s.batch.ReserveN(now, n)
	if !res.OK() {
		return time.Second, false
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return delay, false
	}
	return 0, true
}

func (s *Server) resolve(ctx context.Context, mime string) CanPlayResult {
	res := telemetry.TraceResolve(ctx, s.resolver, mime)
	metrics.RecordVerdict(res.Family, string(res.Verdict), string(res.Reason))

	logger := log.WithComponentFromContext(ctx, "resolver")

	logger.Debug().
		Str(log.FieldEvent, "capability.resolved").
		Str(log.FieldMime, mime).
		Str(log.FieldVerdict, res.Verdict.String()).
		Str(log.FieldReason, string(res.Reason)).
		Str(log.FieldCodec, res.Rejected).
		Msg("query resolved")

	return NewCanPlayResult(mime, res)
}

// NewCanPlayResult renders a resolver result in its wire form.
func NewCanPlayResult(mime string, res capability.Result) CanPlayResult {
	codecs := res.Query.Codecs
	if codecs == nil {
		codecs = []string{}
	}
	return CanPlayResult{
		Type:      mime,
		Verdict:   string(res.Verdict),
		Reason:    string(res.Reason),
		Container: res.Query.Container,
		Codecs:    codecs,
		Rejected:  res.Rejected,
	}
}
