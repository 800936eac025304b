package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	handler "github.com/taskhub/api/internal/adapters/handler/http"
	"github.com/taskhub/api/internal/adapters/hasher"
	"github.com/taskhub/api/internal/adapters/oauth/google"
	repo "github.com/taskhub/api/internal/adapters/repository/postgres"
	jwtcodec "github.com/taskhub/api/internal/adapters/token/jwt"
	"github.com/taskhub/api/internal/config"
	"github.com/taskhub/api/internal/core/services"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repo.NewUserRepository(db)
	refreshRepo := repo.NewRefreshTokenRepository(db)

	codec := jwtcodec.NewCodec([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL)
	resolver := services.NewIdentityService(userRepo, hasher.NewBcryptHasher())
	authSvc := services.NewAuthService(resolver, refreshRepo, codec, google.NewVerifier(), cfg.GoogleClientID, cfg.RefreshTTL)
	userSvc := services.NewUserService(userRepo)
	authenticator := services.NewRequestAuthenticator(codec, refreshRepo)

	authMiddleware := handler.NewAuthMiddleware(authenticator)
	authHandler := handler.NewAuthHandler(authSvc, resolver)
	userHandler := handler.NewUserHandler(userSvc, authSvc)

	router := handler.NewHandler(authMiddleware, authHandler, userHandler)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
