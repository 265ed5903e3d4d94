package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/input"
	"github.com/aretw0/teller/pkg/observability"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

//go:embed openapi.yaml
var rawSpec []byte

// Assistant is the conversational core served over HTTP.
type Assistant interface {
	ProcessTurn(ctx context.Context, userID, sessionID, message string) (*domain.ChatResponse, error)
	History(ctx context.Context, sessionID string) ([]domain.Turn, domain.Memory, error)
	UserData(ctx context.Context, userID string) (*domain.UserData, error)
}

// HealthFunc reports whether the backing storage is reachable.
type HealthFunc func(ctx context.Context) error

// Server handles the HTTP routes of the assistant.
type Server struct {
	assistant Assistant
	health    HealthFunc
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithHealthCheck makes GET /health probe the storage.
func WithHealthCheck(fn HealthFunc) Option {
	return func(s *Server) { s.health = fn }
}

// WithMetrics exposes the registry on GET /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// Spec parses the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	return doc, nil
}

// NewHandler creates the HTTP handler for the assistant. Requests to
// documented routes are validated against the embedded OpenAPI document.
func NewHandler(assistant Assistant, opts ...Option) (http.Handler, error) {
	s := &Server{
		assistant: assistant,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	router, err := newRouter(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequests(router))
		r.Post("/chat", s.Chat)
		r.Get("/health", s.GetHealth)
		r.Get("/user/{userId}/data", s.GetUserData)
		r.Get("/sessions/{sessionId}/history", s.GetSessionHistory)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chiMiddleware.GetReqID(r.Context()),
		)
	})
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HistoryResponse is the body of GET /sessions/{sessionId}/history.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []domain.Turn `json:"turns"`
	Memory    domain.Memory `json:"memory"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Chat handles the POST /chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("Chat: Invalid request body", "err", err)
		return
	}

	userID := strings.TrimSpace(body.UserID)
	sessionID := strings.TrimSpace(body.SessionID)
	if userID == "" || sessionID == "" || strings.TrimSpace(body.Message) == "" {
		s.fail(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	message, err := input.Sanitize(body.Message)
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("Invalid input: %v", err))
		s.logger.Warn("Chat: Input rejected", "err", err, "size", len(body.Message))
		return
	}

	resp, err := s.assistant.ProcessTurn(r.Context(), userID, sessionID, message)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("Error processing request: %v", err))
		s.logger.Error("Chat failed", "session_id", sessionID, "user_id", userID, "err", err)
		return
	}
	s.write(w, http.StatusOK, resp)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error("Health check failed", "err", err)
			s.write(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": err.Error(),
			})
			return
		}
	}
	s.write(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}

// GetUserData handles the GET /user/{userId}/data request.
func (s *Server) GetUserData(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	data, err := s.assistant.UserData(r.Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("User %s not found", userID))
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("User data failed", "user_id", userID, "err", err)
		return
	}
	s.write(w, http.StatusOK, data)
}

// GetSessionHistory handles the GET /sessions/{sessionId}/history request.
func (s *Server) GetSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	turns, mem, err := s.assistant.History(r.Context(), sessionID)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("History failed", "session_id", sessionID, "err", err)
		return
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	s.write(w, http.StatusOK, HistoryResponse{SessionID: sessionID, Turns: turns, Memory: mem})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, detail string) {
	s.write(w, status, errorResponse{Detail: detail})
}
