// Package api exposes the HTTP surface: session, wallet, transaction, and
// football data routes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/logger"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	auth        AuthService
	wallets     WalletService
	sports      SportsService
	authMW      *middleware.AuthMiddleware
	idempotency *middleware.IdempotencyMiddleware
	limiter     *middleware.RateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	auth AuthService,
	wallets WalletService,
	sportsSvc SportsService,
	authMW *middleware.AuthMiddleware,
	idempotency *middleware.IdempotencyMiddleware,
	limiter *middleware.RateLimiter,
) *Server {
	return &Server{
		config:      cfg,
		auth:        auth,
		wallets:     wallets,
		sports:      sportsSvc,
		authMW:      authMW,
		idempotency: idempotency,
		limiter:     limiter,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr: fmt.Sprintf(":%d", s.config.Port),
		// Chain: RequestID -> RateLimit -> Logging -> Routes
		Handler:      middleware.RequestID(s.limiter.Limit(s.loggingMiddleware(s.routes()))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info(context.Background(), "starting server", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// routes builds the route table. Authentication is applied per route;
// idempotency wraps the mutating routes after auth so the replay key is
// scoped to the caller.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	// Session routes. Wallet login carries its own proof, so no Bearer token.
	mux.Handle("/v1/session/login", s.authed(s.idempotency.Handle(http.HandlerFunc(s.handleLogin))))
	mux.HandleFunc("/v1/session/wallet-login", s.handleWalletLogin)
	mux.Handle("/v1/session", s.authed(http.HandlerFunc(s.handleSession)))

	// Wallet routes
	mux.Handle("/v1/wallet", s.authed(s.idempotency.Handle(http.HandlerFunc(s.handleWallet))))
	mux.Handle("/v1/wallet/balance", s.authed(http.HandlerFunc(s.handleBalance)))

	// Transaction routes
	mux.Handle("/v1/transactions", s.authed(http.HandlerFunc(s.handleTransactions)))
	mux.Handle("/v1/transactions/send", s.authed(s.idempotency.Handle(http.HandlerFunc(s.handleSendTransaction))))

	// Football data routes (public)
	mux.HandleFunc("/v1/matches/live", s.handleLiveMatches)
	mux.HandleFunc("/v1/fixtures", s.handleFixtures)
	mux.HandleFunc("/v1/fixtures/", s.handleFixturesByLeague)
	mux.HandleFunc("/v1/leagues/popular", s.handlePopularLeagues)
	mux.HandleFunc("/v1/teams/", s.handleTeamInfo)

	return mux
}

// authed wraps a handler with Bearer token authentication.
func (s *Server) authed(next http.Handler) http.Handler {
	return s.authMW.Authenticate(next)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := middleware.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		logger.Info(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
