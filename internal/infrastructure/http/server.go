// Package http provides the HTTP server infrastructure.
// It is the outermost layer: it decodes requests, calls the orchestrator and
// encodes responses.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// SessionHeader carries the session id when the body has none.
const SessionHeader = "X-Session-ID"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// Service is what the handlers need from the application.
type Service interface {
	Answer(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)
	Stats(ctx context.Context) (fragments, sessions int, err error)
}

// Options configures the server.
type Options struct {
	Addr string

	// RateLimit is the allowed /chat requests per second; 0 disables it.
	RateLimit float64
	RateBurst int

	Logger *slog.Logger
}

// Server is the HTTP server for the chat API.
type Server struct {
	svc     Service
	addr    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(svc Service, opts Options) *Server {
	s := &Server{svc: svc, addr: opts.Addr, logger: opts.Logger}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/chat", s.rateLimit(http.HandlerFunc(s.handleChat)))
	mux.HandleFunc("/health", s.handleHealth)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // generation can be slow
	}

	s.logger.Info("server_starting", "addr", ln.Addr().String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	err := server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		s.logger.Info("server_stopped")
		return nil
	}
	return err
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// MaxRequestBytes caps the /chat request body.
const MaxRequestBytes = 1 << 20

// handleChat answers one question. Malformed or oversized JSON counts as a
// missing message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		req = chatRequest{}
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get(SessionHeader)
	}

	resp, err := s.svc.Answer(r.Context(), entities.ChatRequest{
		Message:    req.Message,
		SessionID:  req.SessionID,
		HasSession: req.SessionID != "",
	})
	switch {
	case errors.Is(err, entities.ErrMissingInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No message received"})
		return
	case err != nil:
		s.logger.Error("chat_failed", "error", err, "request_id", requestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: resp.Response})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fragments, sessions, err := s.svc.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"fragments": fragments,
		"sessions":  sessions,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

		s.logger.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
