package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitchside/pitchside/internal/api"
	"github.com/pitchside/pitchside/internal/app"
	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/identity"
	"github.com/pitchside/pitchside/internal/logger"
	"github.com/pitchside/pitchside/internal/middleware"
	"github.com/pitchside/pitchside/internal/session"
	"github.com/pitchside/pitchside/internal/sol"
	"github.com/pitchside/pitchside/internal/sports"
	"github.com/pitchside/pitchside/internal/storage"
	"github.com/pitchside/pitchside/internal/wallet"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	store, err := storage.New(cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	slog.Info("connected to database")

	// Identity provider (custodial auth + embedded wallets)
	provider := identity.NewClient(cfg.IdentityAPIURL, cfg.IdentityAppID, cfg.IdentityAppSecret)

	// Solana RPC
	chain, err := sol.NewClient(cfg.SolanaRPCURL, cfg.SolanaCommitment)
	if err != nil {
		slog.Error("failed to initialize Solana client", "error", err)
		os.Exit(1)
	}

	slog.Info("initialized Solana client", "rpc", cfg.SolanaRPCURL, "commitment", cfg.SolanaCommitment)

	// Wallet reconciliation core
	lifecycle := wallet.NewLifecycle(provider)
	sender := wallet.NewSender(chain, provider, cfg.SolanaConfirmTimeout)

	// Persisted session store
	sessions := session.NewStore(storage.NewSessionRepository(store))

	// Application services
	authService := app.NewAuthService(store, provider, lifecycle, sessions)
	walletService := app.NewWalletService(store, provider, lifecycle, sender, chain)

	// Sports-data collaborator
	sportsService := sports.NewService(
		sports.NewClient(cfg.SportsAPIURL, cfg.SportsAPIKey),
		cfg.SportsAllowedLeagues,
	)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthSettings{
		Issuer:   cfg.IdentityIssuer,
		Audience: cfg.IdentityAppID,
		JWKSURI:  cfg.IdentityJWKSURI,
	})
	idempotencyMiddleware := middleware.NewIdempotencyMiddleware(storage.NewIdempotencyRepository(store))
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.RateLimitEnabled)

	// API server
	server := api.NewServer(cfg, authService, walletService, sportsService, authMiddleware, idempotencyMiddleware, rateLimiter)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		slog.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		slog.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("error during shutdown", "error", err)
			slog.Warn("forcing shutdown")
		}

		slog.Info("server stopped")
	}
}
