package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/config"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	authsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/auth"
	ratesvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/rate"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService   *authsvc.Service
	Validator     *sessionsvc.Validator
	Terminator    *sessionsvc.Terminator
	SessionLister handlers.SessionLister
	RateLimiter   *ratesvc.Limiter
	Logger        *zap.Logger
	Config        config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Terminator, deps.RateLimiter)
	sessionHandler := handlers.NewSessionHandler(deps.SessionLister, deps.Terminator, deps.Config.Session.ListLimit)

	sessionMW := SessionMiddleware(deps.Validator, deps.Logger)
	adminMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)
	r.Post("/auth/login", authHandler.Login)
	r.With(sessionMW).Post("/auth/logout", authHandler.Logout)
	r.With(sessionMW).Post("/auth/totp/enroll", authHandler.EnrollTOTP)

	r.Route("/me/sessions", func(r chi.Router) {
		r.Use(sessionMW)
		r.Get("/", sessionHandler.List)
		r.Delete("/{id}", sessionHandler.Delete)
	})

	r.With(sessionMW, adminMW).Delete("/admin/users/{userID}/sessions/{id}", sessionHandler.AdminTerminate)
}
