// Package server exposes the wizard over HTTP. Each session is keyed by the
// X-Session-ID header.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "social-support-wizard/internal/common/errors"
	"social-support-wizard/internal/common/i18n"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/persistence"
	"social-support-wizard/internal/submission"
	"social-support-wizard/internal/suggestion"
	"social-support-wizard/internal/wizard"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HeaderSessionID = "X-Session-ID"
	HeaderAIKey     = "X-AI-Key"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Config      *Config
	Store       persistence.Store
	Persistence *persistence.Config
	Suggestions suggestion.Service
	Credentials *suggestion.StoreCredentials
	Pipeline    *submission.Pipeline
	Translator  *i18n.Translator
	Checks      map[string]HealthCheck
	Logger      logger.Logger
}

type Server struct {
	deps     Deps
	registry *Registry
	limiter  ratelimit.RateLimiter
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
	mux      *http.ServeMux
}

func New(deps Deps) *Server {
	rate := deps.Config.SuggestionRate
	if rate <= 0 {
		rate = 1
	}
	burst := deps.Config.SuggestionBurst
	if burst <= 0 {
		burst = rate
	}

	s := &Server{
		deps:    deps,
		limiter: newLimiter(rate, burst),
		errors:  apperrors.NewErrorHandler(deps.Logger),
		logger:  deps.Logger,
		mux:     http.NewServeMux(),
	}
	s.registry = NewRegistry(deps.Config.SessionIdleTimeout, s.newSession)
	s.routes()
	return s
}

// newLimiter is a per-session token bucket for suggestion calls.
func newLimiter(rate, burst int) ratelimit.RateLimiter {
	return ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		FailOpen: true,
	})
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("GET /api/wizard", s.withSession(s.handleGetState))
	s.mux.HandleFunc("POST /api/wizard/reset", s.withSession(s.handleReset))
	s.mux.HandleFunc("POST /api/wizard/steps/{step}", s.withSession(s.handleSubmitStep))
	s.mux.HandleFunc("POST /api/wizard/steps/{step}/goto", s.withSession(s.handleGoToStep))
	s.mux.HandleFunc("POST /api/wizard/submit", s.withSession(s.handleSubmit))

	s.mux.HandleFunc("GET /api/wizard/suggestions", s.withSession(s.handleGetSuggestion))
	s.mux.HandleFunc("POST /api/wizard/suggestions/accept", s.withSession(s.handleAccept))
	s.mux.HandleFunc("POST /api/wizard/suggestions/edit", s.withSession(s.handleEdit))
	s.mux.HandleFunc("POST /api/wizard/suggestions/discard", s.withSession(s.handleDiscard))
	s.mux.HandleFunc("POST /api/wizard/suggestions/{field}", s.withSession(s.handleRequestSuggestion))
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// HTTPServer builds the listener-side server with configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.deps.Config.Address,
		Handler:           s.Handler(),
		ReadTimeout:       s.deps.Config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.deps.Config.WriteTimeout,
	}
}

func (s *Server) newSession(ctx context.Context, id string) *Session {
	log := s.logger.With(map[string]interface{}{"sessionId": id})
	adapter := persistence.NewAdapter(s.deps.Store, s.deps.Persistence.SessionKey(id), s.deps.Persistence.Policy, log)
	machine := wizard.NewMachine(adapter, log)
	creds := s.deps.Credentials.Scoped(s.deps.Persistence.CredentialSessionKey(id))
	if machine.Restore(ctx) {
		log.Info("Session restored from snapshot", nil)
	}
	return &Session{
		ID:       id,
		Machine:  machine,
		Workflow: suggestion.NewWorkflow(s.deps.Suggestions, creds, machine, log),
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session, locale string)

func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderSessionID)
		if id == "" {
			id = uuid.New().String()
		} else if _, err := uuid.Parse(id); err != nil {
			s.errors.Write(w, apperrors.NewBadRequestError("X-Session-ID must be a UUID"))
			return
		}
		locale := s.deps.Translator.Match(r.Header.Get("Accept-Language"))
		w.Header().Set(HeaderSessionID, id)
		w.Header().Set("Content-Language", locale)

		next(w, r, s.registry.Get(r.Context(), id), locale)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody leaves v untouched for an empty body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return apperrors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}
