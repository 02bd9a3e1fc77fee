// Package server exposes the dependency-graph builder over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matsen/depgraph/internal/graph"
)

// GraphBuilder builds a dependency graph for a paper identifier.
type GraphBuilder interface {
	Build(ctx context.Context, rootRef string) *graph.Data
}

// Server handles the analyze endpoint. Each request gets its own build;
// no graph state is shared across requests.
type Server struct {
	builder  GraphBuilder
	provider graph.MetadataProvider
	log      *zap.Logger
}

// New creates a Server. The provider is used for the secondary lookup
// that distinguishes "paper not found" from "no dependencies found".
func New(builder GraphBuilder, provider graph.MetadataProvider, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{builder: builder, provider: provider, log: log}
}

// Routes returns the HTTP handler for the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.Post("/analyze_paper", s.handleAnalyze)
	r.Get("/healthz", s.handleHealthz)

	return r
}

// analyzeRequest is the body of an analyze request. The field is named
// doi for historical reasons; any supported identifier format works.
type analyzeRequest struct {
	DOI string `json:"doi"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "DOI is required"})
		return
	}

	id := strings.TrimSpace(req.DOI)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "DOI is required"})
		return
	}

	s.log.Info("starting analysis", zap.String("id", id))

	data := s.builder.Build(r.Context(), id)

	if data.IsEmpty() {
		// Secondary lookup so the caller learns whether the paper
		// exists at all.
		if _, err := s.provider.GetPaper(r.Context(), id); err != nil {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error: fmt.Sprintf("Paper with identifier '%s' not found in Semantic Scholar. Please check the DOI/ID and try again.", id),
			})
			return
		}
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "Paper found but no dependencies could be identified. This might be because the paper has no references or they couldn't be analyzed.",
		})
		return
	}

	s.log.Info("analysis complete",
		zap.String("id", id),
		zap.Int("nodes", len(data.Nodes)),
		zap.Int("edges", len(data.Edges)),
	)

	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverer converts panics into the JSON 500 contract and logs the
// full trace for diagnosis.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("request panicked",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error: fmt.Sprintf("Server error: %v", rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
