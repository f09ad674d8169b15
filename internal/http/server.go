// Package http serves the finance tracker: server-rendered views,
// a JSON API and a live snapshot stream per signed-in user.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/store"
	appweb "fintrack/web"
)

// listCacheTTL bounds staleness for page loads; SSE subscribers get
// fresh snapshots regardless.
const listCacheTTL = 30 * time.Second

type Server struct {
	http.Server

	templates *template.Template
	repo      store.Repository
	store     *store.Adapter
	auth      *auth.Service
	logger    *log.Logger

	limiter      *ratelimit.Limiter
	listCache    *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, repo store.Repository, adapter *store.Adapter, authSvc *auth.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()

	s := &Server{
		repo:         repo,
		store:        adapter,
		auth:         authSvc,
		logger:       logger.WithComponent(log.ComponentHTTP),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		listCache:    cache.NewLRUCache[[]core.Transaction](256, listCacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(template.FuncMap{
		"currency": core.FormatCurrency,
		"date":     core.FormatDate,
		"emoji":    core.CategoryEmoji,
		"color":    core.CategoryColor,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Error("Failed to mount embedded static FS", log.FieldError, err)
	}

	// Pages
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /transactions", s.handleTransactions)
	mux.HandleFunc("GET /analytics", s.handleAnalytics)

	// Auth
	mux.HandleFunc("GET /signin", s.handleSignInPage)
	mux.HandleFunc("POST /signin", s.limitWrites(s.handleSignIn))
	mux.HandleFunc("GET /signup", s.handleSignUpPage)
	mux.HandleFunc("POST /signup", s.limitWrites(s.handleSignUp))
	mux.HandleFunc("POST /signout", s.handleSignOut)

	// JSON API
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.limitWrites(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.limitWrites(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.limitWrites(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/stream", s.handleStream)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(log.Middleware(s.logger)(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// limitWrites applies the per-client rate limit to mutating endpoints.
func (s *Server) limitWrites(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP extracts the client address, honoring common proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// listTransactions returns the user's transactions, newest first,
// serving recent page loads from cache.
func (s *Server) listTransactions(ctx context.Context, uid string) ([]core.Transaction, error) {
	if txs, ok := s.listCache.Get(uid); ok {
		out := make([]core.Transaction, len(txs))
		copy(out, txs)
		return out, nil
	}

	txs, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(uid, txs)
	return txs, nil
}

// invalidateList drops the cached list after a local mutation. Remote
// mutations age out via the cache TTL.
func (s *Server) invalidateList(uid string) {
	s.listCache.Delete(uid)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListByUser(r.Context(), "readiness-probe"); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
