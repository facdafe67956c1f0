package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liamcoop/modelbench/evaluators"
	"github.com/liamcoop/modelbench/internal/config"
	"github.com/liamcoop/modelbench/internal/logger"
	"github.com/liamcoop/modelbench/model"
	"github.com/liamcoop/modelbench/results"
	"github.com/liamcoop/modelbench/runner"
)

// maxBodyBytes caps request bodies; suites with recorded responses are the largest
const maxBodyBytes = 8 << 20

type Server struct {
	db         *sql.DB // nil when results are kept in memory
	registry   *evaluators.Registry
	store      results.Store
	runnerOpts runner.Options
	router     *chi.Mux
}

// NewServer connects to PostgreSQL when cfg.DatabaseURL is set and keeps
// results in memory otherwise
func NewServer(cfg config.Config) (*Server, error) {
	opts := runner.Options{
		Concurrency:   cfg.Concurrency,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	}

	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, keeping results in memory")
		return NewServerWithStore(nil, results.NewInMemoryStore(), opts), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := results.NewCachedStore(
		results.NewPostgresStore(db),
		results.NewInMemoryRunCache(results.CacheConfig{TTL: cfg.ResultsCacheTTL}),
	)
	return NewServerWithStore(db, store, opts), nil
}

// NewServerWithStore builds a server around an existing store; db may be nil
func NewServerWithStore(db *sql.DB, store results.Store, opts runner.Options) *Server {
	s := &Server{
		db:         db,
		registry:   evaluators.DefaultRegistry(),
		store:      store,
		runnerOpts: opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/categories", s.handleListCategories)
		r.Post("/evaluate", s.handleEvaluate)

		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs/{runId}/results", s.handleListRunResults)

		r.Get("/results/{resultId}", s.handleGetResult)
		r.Delete("/results/{resultId}", s.handleDeleteResult)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "healthy",
		Storage:    "memory",
		Categories: len(s.registry.Categories()),
		Counters:   logger.Counters(),
	}

	if s.db != nil {
		resp.Storage = "postgres"
		if err := s.db.PingContext(r.Context()); err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	resp := CategoriesListResponse{Categories: []CategoryResponse{}}
	for _, id := range s.registry.Categories() {
		e, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		resp.Categories = append(resp.Categories, CategoryResponse{ID: id, Description: e.Description})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Category == "" {
		respondError(w, http.StatusBadRequest, "category is required", nil)
		return
	}

	if len(req.Model) == 0 {
		respondError(w, http.StatusBadRequest, "model is required", nil)
		return
	}

	m, err := model.Parse(req.Model)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid model", err)
		return
	}

	startTime := time.Now()

	failures, err := s.registry.Evaluate(req.Category, m, req.Expectation)
	switch {
	case errors.Is(err, evaluators.ErrUnknownCategory):
		respondError(w, http.StatusNotFound, "unknown category", err)
		return
	case errors.Is(err, evaluators.ErrInvalidExpectation):
		respondError(w, http.StatusBadRequest, "invalid expectation", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Failures:       failures,
		Score:          evaluators.Score(failures),
		EvaluationTime: time.Since(startTime).String(),
	})
}

// handleCreateRun scores a suite whose tests carry recorded responses
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var suite runner.Suite
	if err := decodeBody(w, r, &suite); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	run := runner.New(s.registry, runner.FixtureGenerator{}, s.store, s.runnerOpts)
	report, err := run.Run(r.Context(), &suite)
	switch {
	case errors.Is(err, runner.ErrInvalidSuite):
		respondError(w, http.StatusBadRequest, "invalid suite", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "run failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, RunResponse{
		RunID:   report.Summary.RunID,
		Summary: report.Summary,
		Results: report.Results,
	})
}

func (s *Server) handleListRunResults(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	list, err := s.store.ListByRun(runID)
	if err != nil {
		logger.ErrorStore("list", err)
		respondError(w, http.StatusInternalServerError, "failed to list results", err)
		return
	}
	if len(list) == 0 {
		respondError(w, http.StatusNotFound, "run not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, ResultsListResponse{RunID: runID, Results: list})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	resultID := chi.URLParam(r, "resultId")

	result, err := s.store.Get(resultID)
	if errors.Is(err, results.ErrNotFound) {
		respondError(w, http.StatusNotFound, "result not found", err)
		return
	}
	if err != nil {
		logger.ErrorStore("get", err)
		respondError(w, http.StatusInternalServerError, "failed to get result", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	resultID := chi.URLParam(r, "resultId")

	err := s.store.Delete(resultID)
	if errors.Is(err, results.ErrNotFound) {
		respondError(w, http.StatusNotFound, "result not found", err)
		return
	}
	if err != nil {
		logger.ErrorStore("delete", err)
		respondError(w, http.StatusInternalServerError, "failed to delete result", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	switch {
	case status >= 500:
		logger.ErrorHttp5xx()
	case status >= 400:
		logger.WarnHttp4xx()
	}

	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	opts := logger.OptionsFromEnv()
	opts.Level = cfg.LogLevel
	if err := logger.Setup(context.Background(), opts); err != nil {
		logger.Fatal("failed to configure logging", "error", err)
	}

	server, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "categories", server.registry.Categories())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown error: %v\n", err)
	}

	logger.Info("server stopped")
}
