// Package http exposes an Engine's sessions over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/api"
	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultRequestTimeout bounds waiting dispatches.
const DefaultRequestTimeout = 15 * time.Second

// Engine is the part of reschema.Engine the server drives.
type Engine interface {
	Schemas() []*schema.Schema
	Sessions(ctx context.Context) ([]string, error)
	Open(ctx context.Context, id string) (*reschema.Session, error)
	Lookup(ctx context.Context, id string) (*reschema.Session, error)
	Delete(ctx context.Context, id string) error
	Dispatch(ctx context.Context, sessionID, schemaName, operation string, payload any) (*domain.Future, error)
}

var _ Engine = (*reschema.Engine)(nil)

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts a metrics handler (usually promhttp.Handler()) at path.
func WithMetrics(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = handler
	}
}

// WithRequestTimeout bounds how long ?wait=true dispatches block.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// Server holds the handlers of the API.
type Server struct {
	Engine Engine

	logger      *slog.Logger
	metricsPath string
	metrics     http.Handler
	timeout     time.Duration
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.validateRequest(mustContract()))

	r.Get("/openapi.yaml", s.GetContract)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/schemas", s.ListSchemas)
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/state", s.GetState)
			r.Get("/selectors", s.GetSelectors)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/dispatch/{schema}/{operation}", s.Dispatch)
			r.Delete("/", s.DeleteSession)
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// mustContract builds a router over the embedded OpenAPI document.
func mustContract() routers.Router {
	doc, err := openapi3.NewLoader().LoadFromData(api.Spec)
	if err != nil {
		panic(fmt.Sprintf("http: invalid OpenAPI document: %v", err))
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		panic(fmt.Sprintf("http: invalid OpenAPI document: %v", err))
	}
	return router
}

// validateRequest rejects requests whose parameters break the contract.
// Routes outside the contract, like the metrics path, pass through.
// Dispatch bodies are schema-defined and only checked for valid JSON.
func (s *Server) validateRequest(router routers.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    &openapi3filter.Options{ExcludeRequestBody: true},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				s.logger.Warn("Request rejected by contract", "path", r.URL.Path, "err", err)
				s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetContract handles GET /openapi.yaml.
func (s *Server) GetContract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.Spec)
}

// SchemaInfo describes a schema for clients.
type SchemaInfo struct {
	Name       string                 `json:"name"`
	Namespace  string                 `json:"namespace"`
	Operations []schema.OperationInfo `json:"operations"`
	Selectors  []string               `json:"selectors"`
}

// SessionResponse is returned by session endpoints.
type SessionResponse struct {
	ID    string       `json:"id"`
	State domain.State `json:"state"`
}

// DispatchResponse is returned by the dispatch endpoint.
type DispatchResponse struct {
	Accepted bool         `json:"accepted"`
	Result   any          `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
	State    domain.State `json:"state,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "reschema-http",
		"version": strings.TrimSpace(reschema.Version),
	})
}

// ListSchemas handles GET /schemas.
func (s *Server) ListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas := s.Engine.Schemas()
	out := make([]SchemaInfo, 0, len(schemas))
	for _, sc := range schemas {
		selectors := make([]string, 0, len(sc.Selectors()))
		for name := range sc.Selectors() {
			selectors = append(selectors, name)
		}
		slices.Sort(selectors)
		out = append(out, SchemaInfo{
			Name:       sc.Name(),
			Namespace:  sc.Namespace(),
			Operations: sc.Operations(),
			Selectors:  selectors,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	sess, err := s.Engine.Open(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.Flush(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session created", "session_id", id)
	w.Header().Set("Location", "/sessions/"+id)
	s.writeJSON(w, http.StatusCreated, SessionResponse{ID: id, State: sess.State()})
}

// GetState handles GET /sessions/{id}/state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID(), State: sess.State()})
}

// GetSelectors handles GET /sessions/{id}/selectors.
// Query parameters become the selector props.
func (s *Server) GetSelectors(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	props := map[string]any{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			props[key] = values[0]
		}
	}
	s.writeJSON(w, http.StatusOK, sess.Select(props))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dispatch handles POST /sessions/{id}/dispatch/{schema}/{operation}.
// The body, if any, is the JSON payload. Async operations answer 202 unless
// ?wait=true is set, in which case the response carries the outcome.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		s.logger.Warn("Dispatch: Invalid request body", "error", err)
		return
	}

	// Requests outlive the HTTP exchange unless the caller waits for them.
	ctx := context.WithoutCancel(r.Context())
	future, err := s.Engine.Dispatch(ctx, sess.ID(), chi.URLParam(r, "schema"), chi.URLParam(r, "operation"), payload)
	if err != nil {
		s.writeError(w, err)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !future.Settled() && !wait {
		s.writeJSON(w, http.StatusAccepted, DispatchResponse{Accepted: true})
		return
	}

	waitCtx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, err := future.Wait(waitCtx)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.writeJSON(w, http.StatusAccepted, DispatchResponse{Accepted: true, Error: err.Error()})
	case err != nil:
		s.writeJSON(w, http.StatusUnprocessableEntity, DispatchResponse{Accepted: true, Error: err.Error(), State: sess.State()})
	default:
		s.writeJSON(w, http.StatusOK, DispatchResponse{Accepted: true, Result: result, State: sess.State()})
	}
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// Each reduced action is sent with the resulting tree.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan []byte, 10)
	unsubscribe := sess.Subscribe(func(state domain.State, a domain.Action) {
		msg, err := json.Marshal(map[string]any{"action": a, "state": state})
		if err != nil {
			s.logger.Warn("SSE: failed to encode event", "error", err)
			return
		}
		select {
		case ch <- msg:
		default:
			s.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sess.ID())
		}
	})
	defer unsubscribe()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected", "session_id", sess.ID())
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*reschema.Session, bool) {
	sess, err := s.Engine.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownSchema),
		errors.Is(err, domain.ErrUnknownOperation):
		status = http.StatusNotFound
	default:
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
