package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/eventscrape"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultShutdownTimeout bounds the graceful drain on shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// ServiceBanner is returned from the root endpoint.
const ServiceBanner = "Event Scraper API"

// Server exposes the scrape pipeline over HTTP.
type Server struct {
	ln     net.Listener
	server *http.Server
	router chi.Router

	scraper eventscrape.ScrapeService
	limiter eventscrape.ClientLimiter
	logger  *slog.Logger

	// Debug includes internal error details in 500 responses. Off in
	// production so internals never leak to callers.
	Debug bool
}

// NewServer constructs a Server with middleware and routes. The limiter is
// optional; without one, requests are not rate limited.
func NewServer(scraper eventscrape.ScrapeService, limiter eventscrape.ClientLimiter, logger *slog.Logger) *Server {
	s := &Server{
		scraper: scraper,
		limiter: limiter,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/scrape", s.handleScrape)
	})

	s.router = r
	return s
}

// Handler returns the router for use with httptest or a custom http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Open binds the listener on addr. Binding is separated from serving so a bad
// address fails synchronously before any goroutines start.
func (s *Server) Open(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Serve accepts connections until Close is called. A clean shutdown returns
// nil.
func (s *Server) Serve() error {
	if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close drains in-flight requests and shuts the server down.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"service": ServiceBanner})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req eventscrape.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, eventscrape.Errorf(eventscrape.EINVALID, "invalid JSON request body"))
		return
	}

	record, err := s.scraper.Scrape(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// codeToStatus maps application error codes onto HTTP status codes.
var codeToStatus = map[string]int{
	eventscrape.EINVALID:       http.StatusBadRequest,
	eventscrape.EUNAUTHORIZED:  http.StatusUnauthorized,
	eventscrape.EUNPROCESSABLE: http.StatusUnprocessableEntity,
	eventscrape.ERATELIMIT:     http.StatusTooManyRequests,
	eventscrape.EUNAVAILABLE:   http.StatusServiceUnavailable,
	eventscrape.EINTERNAL:      http.StatusInternalServerError,
}

// errorCategories are the caller-facing names of each error code.
var errorCategories = map[string]string{
	eventscrape.EINVALID:       "Invalid input",
	eventscrape.EUNAUTHORIZED:  "Authentication error",
	eventscrape.EUNPROCESSABLE: "Content processing error",
	eventscrape.ERATELIMIT:     "Rate limit exceeded",
	eventscrape.EUNAVAILABLE:   "Service unavailable",
	eventscrape.EINTERNAL:      "Internal server error",
}

// errorResponse is the uniform error body shape.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := eventscrape.ErrorCode(err)
	status, ok := codeToStatus[code]
	if !ok {
		status = http.StatusInternalServerError
		code = eventscrape.EINTERNAL
	}

	details := eventscrape.ErrorMessage(err)
	if code == eventscrape.EINTERNAL && !s.Debug {
		details = "An unexpected error occurred."
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err.Error())
	}

	s.writeJSON(w, status, errorResponse{
		Error:   errorCategories[code],
		Details: details,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"request_id", RequestIDFromContext(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "path", r.URL.Path, "panic", rec)
				s.writeError(w, r, eventscrape.Errorf(eventscrape.EINTERNAL, "internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware admits requests per client IP. RealIP has already
// rewritten RemoteAddr from forwarding headers where present.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientID(r)) {
			s.writeError(w, r, eventscrape.Errorf(eventscrape.ERATELIMIT, "rate limit exceeded, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID assigned by the middleware, or
// an empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
