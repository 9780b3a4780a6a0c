// Package server exposes the optimization pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness and build version
//	POST /v1/optimize      {"market": <document>, "options": {...}} -> result
//	GET  /v1/runs?limit=N  recorded runs, newest first
//	GET  /v1/runs/{id}     one recorded run
//
// Errors are returned as {"error": {"code": "...", "message": "..."}} with
// the status given by errors.HTTPStatus.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/homematch/pkg/buildinfo"
	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/marketdoc"
	"github.com/matzehuels/homematch/pkg/observability"
	"github.com/matzehuels/homematch/pkg/pipeline"
	"github.com/matzehuels/homematch/pkg/rewire"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 16 << 20

// DefaultOptimizeTimeout bounds an optimization when Defaults.Timeout is 0.
const DefaultOptimizeTimeout = 2 * time.Minute

// Options configures a Server.
type Options struct {
	// Defaults fill in fields a request leaves empty. Defaults.MaxLeaves and
	// Defaults.Workers are also ceilings for what a request may ask for.
	Defaults pipeline.Options

	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
	router chi.Router
}

// OptimizeRequest is the body of POST /v1/optimize.
type OptimizeRequest struct {
	Market  marketdoc.Document `json:"market"`
	Options pipeline.Options   `json:"options"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// RunsResponse is the body of GET /v1/runs.
type RunsResponse struct {
	Runs any `json:"runs"`
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// New creates a server around runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Defaults.MaxLeaves == 0 {
		opts.Defaults.MaxLeaves = rewire.DefaultMaxLeaves
	}
	if opts.Defaults.Timeout <= 0 {
		opts.Defaults.Timeout = DefaultOptimizeTimeout
	}
	s := &Server{runner: runner, logger: logger, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}

	opts, err := s.withDefaults(req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Logger = s.logger.With("request", middleware.GetReqID(r.Context()))
	res, err := s.runner.Optimize(r.Context(), req.Market, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be an integer"))
			return
		}
		limit = n
	}
	runs, err := s.runner.Runs(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// withDefaults fills the empty fields of opts from the server defaults.
// Search size and worker count are capped at the defaults, and runtime-only
// fields always come from the defaults.
func (s *Server) withDefaults(opts pipeline.Options) (pipeline.Options, error) {
	d := s.opts.Defaults
	if opts.MaxLeaves < 0 {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "max_leaves must not be negative")
	}
	if opts.Engine == "" {
		opts.Engine = d.Engine
	}
	if opts.Workers == 0 || (d.Workers > 0 && opts.Workers > d.Workers) {
		opts.Workers = d.Workers
	}
	if opts.MaxLeaves == 0 || (d.MaxLeaves > 0 && opts.MaxLeaves > d.MaxLeaves) {
		opts.MaxLeaves = d.MaxLeaves
	}
	if opts.Policy == "" {
		opts.Policy = d.Policy
	}
	opts.Timeout = d.Timeout
	opts.TTL = d.TTL
	opts.Scorer = d.Scorer
	return opts, nil
}

// =============================================================================
// Responses & Middleware
// =============================================================================

func (s *Server) writeError(w http.ResponseWriter, err error) {
	coded := pipeline.Classify(err)
	status := errors.HTTPStatus(coded.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", coded.Code, "err", err)
	}
	var body errorBody
	body.Error.Code = coded.Code
	body.Error.Message = errors.UserMessage(coded)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// observe reports every request to the server hooks, keyed by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Server().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status)
	})
}
