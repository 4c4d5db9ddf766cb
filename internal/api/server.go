// Package api exposes the read-side query surface and the run trigger over
// HTTP. Handlers return JSON; the store stays the single source of truth.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/assay.report/internal/db"
	"github.com/banshee-data/assay.report/internal/hcs/pipeline"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// RunTrigger starts a pipeline run; satisfied by *pipeline.Runner.
type RunTrigger interface {
	Run(ctx context.Context, asid int64, startLevel, endLevel int) (*pipeline.Report, error)
}

type Server struct {
	db     *db.DB
	runner RunTrigger
}

func NewServer(database *db.DB, runner RunTrigger) *Server {
	return &Server{
		db:     database,
		runner: runner,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/studies", s.listStudies)
	mux.HandleFunc("/api/summaries", s.listSummaries)
	mux.HandleFunc("/api/cutoffs", s.listCutoffs)
	mux.HandleFunc("/api/runs", s.startRun)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// listStudies returns studies matching the optional name/phase filters. No
// match is an empty list, not an error.
func (s *Server) listStudies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filters := map[string]string{}
	for _, key := range []string{"asid", "name", "phase"} {
		if v := r.URL.Query().Get(key); v != "" {
			filters[key] = v
		}
	}

	studies, err := s.db.FindStudies(filters)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to query studies: %v", err))
		return
	}
	s.writeJSON(w, studies)
}

// asidParam parses the required asid query parameter.
func asidParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("asid")
	if raw == "" {
		return 0, fmt.Errorf("missing 'asid' parameter")
	}
	asid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || asid < 1 {
		return 0, fmt.Errorf("invalid 'asid' parameter")
	}
	return asid, nil
}

func (s *Server) listSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	asid, err := asidParam(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries, err := s.db.SummariesByStudy(asid)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to query summaries: %v", err))
		return
	}
	s.writeJSON(w, summaries)
}

func (s *Server) listCutoffs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	asid, err := asidParam(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	cutoffs, err := s.db.CutoffsByStudy(asid)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to query cutoffs: %v", err))
		return
	}
	s.writeJSON(w, cutoffs)
}

type runRequest struct {
	ASID       int64 `json:"asid"`
	StartLevel int   `json:"start_level"`
	EndLevel   int   `json:"end_level"`
}

// startRun triggers a synchronous pipeline run and returns its report. A run
// with isolated endpoint failures still returns 200 with the failures inside
// the report; only store failures map to a 500.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ASID < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'asid' field")
		return
	}

	report, err := s.runner.Run(r.Context(), req.ASID, req.StartLevel, req.EndLevel)
	if err != nil {
		if report == nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Run %s aborted: %v", report.RunID, err))
		return
	}
	s.writeJSON(w, report)
}
