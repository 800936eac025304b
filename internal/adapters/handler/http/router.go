package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(authMiddleware *AuthMiddleware, authHandler *AuthHandler, userHandler *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authMiddleware.Authenticate)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Get("/check-email", authHandler.CheckEmail)
		r.Post("/login", authHandler.Login)
		r.Post("/oauth2/login", authHandler.OAuth2Login)
		r.Post("/refresh", authHandler.Refresh)

		r.With(RequireAuth).Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireAuth)

		r.Get("/me", userHandler.GetMe)
		r.Delete("/me", userHandler.DeleteMe)
	})

	return r
}
