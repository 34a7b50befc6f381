// Package http serves the transaction API: CRUD, derived list views,
// summary, export and import.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "finanze/internal/log"
	"finanze/internal/services"
	"finanze/internal/store"
)

type Server struct {
	http.Server
	service *services.TransactionService
	store   *store.Store

	pageSize       int
	searchMinChars int

	log          *applog.Logger
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. mutationsPerMinute caps POST/PUT/DELETE requests per client IP.
func NewServer(addr string, svc *services.TransactionService, pageSize, searchMinChars, mutationsPerMinute int) *Server {
	mux := http.NewServeMux()
	logger := applog.New(applog.Config{Component: applog.ComponentHTTP})

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		service:        svc,
		store:          svc.Store(),
		pageSize:       pageSize,
		searchMinChars: searchMinChars,
		log:            logger,
		rateLimiter:    newRateLimiter(mutationsPerMinute),
		metrics:        &securityMetrics{},
	}

	mux.HandleFunc("GET /transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withSecurityHeaders(s.handleAddTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurityHeaders(s.handleRemoveTransaction))
	mux.HandleFunc("DELETE /transactions", s.withSecurityHeaders(s.handleClearTransactions))
	mux.HandleFunc("GET /summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /categories", s.withSecurityHeaders(s.handleCategories))
	mux.HandleFunc("GET /export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("POST /import", s.withSecurityHeaders(s.handleImport))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLog := s.log.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, reqLog)
		r = r.WithContext(ctx)

		httpLog := applog.NewHTTPLogger(reqLog)
		httpLog.LogStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			reqLog.WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP, "url", r.URL.String())
		}

		// Rate limit mutations only; reads are cheap.
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				reqLog.WarnContext(ctx, "Rate limit exceeded",
					applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		httpLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
