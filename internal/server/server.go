// Package server exposes the analysis service over HTTP: analysis triggers,
// artifact lookups, health, status, metrics and a progress websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"solana-whale-graph/internal/analysis"
	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/graph"
	"solana-whale-graph/internal/holders"
	"solana-whale-graph/internal/observability"
	"solana-whale-graph/internal/storage"
)

// DefaultRequestTimeout caps the wall-clock budget of one analysis request.
const DefaultRequestTimeout = 5 * time.Minute

// Options configures the HTTP server.
type Options struct {
	// Analysis is the base wiring for per-request analysis services. The
	// server copies it and applies request overrides (max depth, progress).
	Analysis analysis.Options

	Logger         *log.Logger
	RequestTimeout time.Duration
	Hub            *ProgressHub
}

// Server handles the HTTP API.
type Server struct {
	base           analysis.Options
	store          storage.AnalysisStore
	hub            *ProgressHub
	logger         *log.Logger
	requestTimeout time.Duration
	startedAt      time.Time

	mu           sync.Mutex
	analysesRun  int
	lastAnalysis time.Time
	running      bool
}

// New creates the server.
func New(opts Options) (*Server, error) {
	if opts.Analysis.Fetcher == nil {
		return nil, errors.New("server: analysis fetcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	return &Server{
		base:           opts.Analysis,
		store:          opts.Analysis.AnalysisStore,
		hub:            opts.Hub,
		logger:         opts.Logger,
		requestTimeout: opts.RequestTimeout,
		startedAt:      time.Now(),
	}, nil
}

// Routes registers all handlers on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/analyses/{id}", s.handleGetAnalysis)
	mux.HandleFunc("GET /api/analyses", s.handleListAnalyses)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)

	if s.hub != nil {
		mux.HandleFunc("GET /ws/progress", s.hub.HandleWS)
	}

	return mux
}

// AnalyzeRequest is the JSON body of POST /api/analyze. Exactly one of
// Token or Address must be set.
type AnalyzeRequest struct {
	Token     string  `json:"token,omitempty"`
	Address   string  `json:"address,omitempty"`
	MinAmount float64 `json:"min_amount"`
	MaxDepth  int     `json:"max_depth,omitempty"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// handleAnalyze runs an analysis synchronously and returns the artifact.
// POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if (req.Token == "") == (req.Address == "") {
		writeError(w, http.StatusBadRequest, "exactly one of token or address is required")
		return
	}
	if req.MinAmount < 0 {
		writeError(w, http.StatusBadRequest, "min_amount must not be negative")
		return
	}
	target := req.Token
	if target == "" {
		target = req.Address
	}
	if !holders.ValidAddress(target) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid base58 address %q", target))
		return
	}

	svc, err := s.serviceFor(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	s.markRunning(true)
	defer s.markRunning(false)

	var a *domain.Analysis
	if req.Token != "" {
		a, err = svc.AnalyzeToken(ctx, req.Token, req.MinAmount)
	} else {
		a, err = svc.AnalyzeAddress(ctx, req.Address, req.MinAmount)
	}
	if err != nil {
		s.logger.Printf("analysis failed: target=%s: %v", target, err)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "analysis exceeded the request time budget")
		case errors.Is(err, analysis.ErrNoHolders):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	s.mu.Lock()
	s.analysesRun++
	s.lastAnalysis = time.Now()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, a)
}

// serviceFor builds an analysis service with the request's overrides.
func (s *Server) serviceFor(req AnalyzeRequest) (*analysis.Service, error) {
	opts := s.base
	if req.MaxDepth > 0 {
		opts.MaxDepth = req.MaxDepth
	}
	if s.hub != nil {
		opts.Progress = func(ev graph.Event) { s.hub.Publish(ev) }
	}
	return analysis.NewService(opts)
}

// handleGetAnalysis returns one stored artifact.
// GET /api/analyses/{id}
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "analysis store not configured")
		return
	}

	id := r.PathValue("id")
	a, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("analysis %s not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleListAnalyses returns stored artifacts, optionally filtered by token.
// GET /api/analyses?token=...&limit=...
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "analysis store not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	var (
		list []*domain.Analysis
		err  error
	)
	if token := r.URL.Query().Get("token"); token != "" {
		list, err = s.store.GetByToken(r.Context(), token, limit)
	} else {
		list, err = s.store.GetRecent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*domain.Analysis{}
	}
	writeJSON(w, http.StatusOK, list)
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	AnalysesRun     int       `json:"analyses_run"`
	LastAnalysis    time.Time `json:"last_analysis,omitempty"`
	AnalysisRunning bool      `json:"analysis_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.startedAt).Round(time.Second).String(),
		AnalysesRun:     s.analysesRun,
		LastAnalysis:    s.lastAnalysis,
		AnalysisRunning: s.running,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) markRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
