package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"comforty/internal/auth"
	"comforty/internal/cache"
	"comforty/internal/catalog"
	"comforty/internal/core"
	"comforty/internal/export"
	applog "comforty/internal/log"
	"comforty/internal/services"
)

// RefreshPublisher asks the worker to re-pull the catalog. The AMQP client
// satisfies it; a nil publisher disables the refresh endpoint.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, entity, reason string) error
}

// Options carries the optional collaborators and tuning knobs for NewServer.
type Options struct {
	Sessions  *auth.Store
	Exporter  export.ReportWriter
	Publisher RefreshPublisher
	Logger    *applog.Logger

	CacheTTL     time.Duration
	CacheMaxSize int
}

type Server struct {
	http.Server
	store       catalog.Store
	dashboard   *services.DashboardService
	sessions    *auth.Store
	exporter    export.ReportWriter
	publisher   RefreshPublisher
	logger      *applog.Logger
	rateLimiter *rateLimiter

	// Record-set caches so a burst of dashboard loads does not hammer the
	// content store. Keyed by entity, invalidated together on refresh.
	productsCache   *cache.LRUCache[[]core.Product]
	ordersCache     *cache.LRUCache[[]core.Order]
	categoriesCache *cache.LRUCache[[]core.Category]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, store catalog.Store, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.CacheMaxSize <= 0 {
		opts.CacheMaxSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		dashboard:   services.NewDashboardService(store, store),
		sessions:    opts.Sessions,
		exporter:    opts.Exporter,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		rateLimiter: newRateLimiter(),

		productsCache:   cache.NewLRUCache[[]core.Product](opts.CacheMaxSize, opts.CacheTTL),
		ordersCache:     cache.NewLRUCache[[]core.Order](opts.CacheMaxSize, opts.CacheTTL),
		categoriesCache: cache.NewLRUCache[[]core.Category](opts.CacheMaxSize, opts.CacheTTL),
		cacheManager:    cache.NewManager(),
	}

	s.cacheManager.Register(s.productsCache)
	s.cacheManager.Register(s.ordersCache)
	s.cacheManager.Register(s.categoriesCache)
	if s.sessions != nil {
		s.cacheManager.Register(s.sessions)
	}
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/api/logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("/api/dashboard", s.withSecurityHeaders(s.requireSession(s.handleDashboard)))
	mux.HandleFunc("/api/dashboard/monthly", s.withSecurityHeaders(s.requireSession(s.handleDashboardMonthly)))
	mux.HandleFunc("/api/dashboard/export", s.withSecurityHeaders(s.requireSession(s.handleDashboardExport)))
	mux.HandleFunc("/api/catalog/refresh", s.withSecurityHeaders(s.requireSession(s.handleCatalogRefresh)))

	mux.HandleFunc("/api/products", s.withSecurityHeaders(s.requireSession(s.handleProducts)))
	mux.HandleFunc("/api/orders", s.withSecurityHeaders(s.requireSession(s.handleOrders)))
	mux.HandleFunc("/api/categories", s.withSecurityHeaders(s.requireSession(s.handleCategories)))

	return s
}

// Shutdown stops background cleanup before shutting the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
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
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		reqLogger := s.logger.With(applog.FieldRequestID, requestID)
		reqLogger.InfoContext(ctx, "Request started",
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only; dashboard reads stay cheap
		// through the record-set caches.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		applog.LogHTTPEnd(ctx, reqLogger, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

// requireSession rejects requests without a valid session token when auth is
// configured. Without a session store the API runs open, for development.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sessions == nil {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookieName); err == nil {
				token = c.Value
			}
		}

		sess, ok := s.sessions.Validate(token)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next(w, r.WithContext(ctx))
	}
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	sessionKey   contextKey = "session"

	sessionCookieName = "comforty_session"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
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
