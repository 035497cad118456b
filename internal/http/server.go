// Package http exposes the ledger over a JSON API. Handlers translate wire
// requests into service calls and map the error taxonomy onto status codes;
// all balance logic stays below the service boundary.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"stashguard/internal/cache"
	"stashguard/internal/core"
	applog "stashguard/internal/log"
	"stashguard/internal/notify"
	"stashguard/internal/services"
)

const statsCacheTTL = 5 * time.Minute

type Server struct {
	http.Server
	ledger      *services.LedgerService
	notifier    *notify.Notifier
	rateLimiter *rateLimiter
	structured  *applog.StructuredLogger

	// Statistics are recomputed from the full operation list on every miss,
	// so they get a small LRU in front, invalidated on any ledger write.
	statsCache   *cache.LRUCache[core.Statistics]
	cacheManager *cache.Manager

	stopInvalidation func()
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, notifier *notify.Notifier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		notifier:    notifier,
		rateLimiter: newRateLimiter(),
		structured:  applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
		statsCache:  cache.NewLRUCache[core.Statistics](100, statsCacheTTL),
	}

	s.cacheManager = cache.NewManager()
	s.cacheManager.Register(s.statsCache)
	s.cacheManager.StartCleanup(statsCacheTTL)

	if notifier != nil {
		events, cancel := notifier.Subscribe()
		s.stopInvalidation = cancel
		go s.invalidateOnChange(events)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withMiddleware(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.withMiddleware(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withMiddleware(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withMiddleware(s.handleDeleteAccount))
	mux.HandleFunc("GET /api/accounts/{id}/operations", s.withMiddleware(s.handleListOperations))
	mux.HandleFunc("GET /api/accounts/{id}/statistics", s.withMiddleware(s.handleAccountStatistics))

	mux.HandleFunc("POST /api/operations", s.withMiddleware(s.handleCreateOperation))
	mux.HandleFunc("GET /api/operations/{id}", s.withMiddleware(s.handleGetOperation))
	mux.HandleFunc("PUT /api/operations/{id}", s.withMiddleware(s.handleUpdateOperation))
	mux.HandleFunc("DELETE /api/operations/{id}", s.withMiddleware(s.handleDeleteOperation))

	mux.HandleFunc("POST /api/transfers", s.withMiddleware(s.handleCreateTransfer))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/events", s.handleEvents)

	return s
}

// invalidateOnChange drops cached statistics whenever the ledger moves. Any
// account or operation event can shift a window aggregate, so the whole cache
// goes; recomputing on the next read is cheap.
func (s *Server) invalidateOnChange(events <-chan notify.Event) {
	for event := range events {
		if event.Topic == notify.TopicCategories {
			continue
		}
		s.statsCache.Clear()
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopInvalidation != nil {
			s.stopInvalidation()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, requestID, clientIP)

		// Rate limit mutations only; reads are cheap and cacheable.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.structured.LogHTTPEnd(ctx, r, requestID, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

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
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
