package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/mpryor/gatekeeper/internal/auth"
	"github.com/mpryor/gatekeeper/internal/handlers"
	"github.com/mpryor/gatekeeper/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
	confirmationHandler *handlers.ConfirmationHandler,
	tokenManager *auth.TokenManager,
	blocklist *auth.Blocklist,
) {
	authRateLimit := middleware.DefaultAuthRateLimit()
	resendRateLimit := middleware.DefaultResendRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/register", userHandler.Register)
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(authRateLimit)).Post("/refresh", authHandler.Refresh)

	// Confirmation links are opened from emails, unauthenticated by design
	router.Get("/confirmation/{confirmationID}", confirmationHandler.Confirm)
	router.With(middleware.RateLimitByIP(resendRateLimit)).Post("/confirmation/user/{userID}", confirmationHandler.Resend)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager, blocklist))

		r.Post("/logout", authHandler.Logout)
		r.Get("/user/{id}", userHandler.GetUser)
		r.Delete("/user/{id}", userHandler.DeleteUser)
		r.Get("/confirmation/user/{userID}", confirmationHandler.ListByUser)
	})
}
