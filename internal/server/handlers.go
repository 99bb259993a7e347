// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-trends/internal/classify"
	"github.com/pdiddy/arxiv-trends/internal/fetch"
	"github.com/pdiddy/arxiv-trends/internal/report"

	"github.com/go-chi/chi/v5"
)

type healthResponse struct {
	Status  string `json:"status"`
	Papers  int    `json:"papers"`
	Reports int    `json:"reports"`
}

type reportRequest struct {
	RunID       string `json:"run_id"`
	PreviewOnly bool   `json:"preview_only"`
}

type topicsResponse struct {
	RunID  string      `json:"run_id"`
	Topics interface{} `json:"topics"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ops.Stats(r.Context())
	if err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Papers:  stats.Papers,
		Reports: stats.Reports,
	})
}

// handleIngest handles POST /api/ingest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.ops.Ingest(r.Context(), io.Discard)
	if err != nil {
		s.log.Error("ingest failed", zap.Error(err))
		s.respondError(w, ingestStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// ingestStatus maps ingest failures onto response codes: incomplete
// configuration is the operator's problem, upstream API failures are the
// upstream's.
func ingestStatus(err error) int {
	if errors.Is(err, classify.ErrNoAPIKey) {
		return http.StatusServiceUnavailable
	}
	var feedErr *fetch.StatusError
	var apiErr *classify.APIError
	if errors.As(err, &feedErr) || errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleGenerateReport handles POST /api/reports. The body is optional;
// an absent run_id targets the most recent run.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.ops.GenerateReport(r.Context(), req.RunID, req.PreviewOnly)
	if err != nil {
		var noData *report.NoDataError
		if errors.As(err, &noData) {
			s.respondError(w, http.StatusNotFound, noData.Error())
			return
		}
		s.log.Error("report generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleLatestReport handles GET /api/reports/latest.
func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	latest, err := s.ops.LatestReport(r.Context())
	if err != nil {
		s.log.Error("latest report lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if latest == nil {
		s.respondError(w, http.StatusNotFound, "no reports generated yet")
		return
	}
	s.respondJSON(w, http.StatusOK, latest)
}

// handleRunTopics handles GET /api/runs/{runID}/topics.
func (s *Server) handleRunTopics(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	aggs, err := s.ops.TopicAggregations(r.Context(), runID)
	if err != nil {
		s.log.Error("topic aggregation failed", zap.String("run_id", runID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, topicsResponse{RunID: runID, Topics: aggs})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}
