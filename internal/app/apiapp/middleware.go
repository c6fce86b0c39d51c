package apiapp

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	authsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/auth"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
	httperrors "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/errors"
)

// SessionTokenHeader carries the opaque session reference; the identity
// payload travels as the bearer token.
const SessionTokenHeader = "X-Session-Token"

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
}

// SessionMiddleware runs every authenticated request through the
// validator. Failures are never fatal: the client gets 401 plus the
// login redirect carrying the reason code.
func SessionMiddleware(validator *sessionsvc.Validator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil {
				httperrors.WriteError(w, http.StatusInternalServerError, "session validator is unavailable")
				return
			}

			identityPayload, _ := extractBearerToken(r.Header.Get("Authorization"))
			sessionToken := strings.TrimSpace(r.Header.Get(SessionTokenHeader))

			verdict, err := validator.Validate(r.Context(), sessionToken, identityPayload)
			if err != nil {
				reason := sessionsvc.ReasonCode(err)
				if log != nil {
					log.Debug("session validation failed", zap.String("reason", reason))
				}
				httperrors.Write(w, http.StatusUnauthorized, httperrors.Envelope{
					Success: false,
					Message: "authentication required",
					Data:    httperrors.RedirectData{Redirect: "/login?reason=" + reason},
				})
				return
			}

			ctx := authsvc.WithIdentity(r.Context(), authsvc.Identity{
				UserID:    verdict.Identity.UserID,
				SessionID: verdict.Session.ID,
				Role:      verdict.Identity.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...enums.Role) func(http.Handler) http.Handler {
	allowed := make(map[enums.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authsvc.IdentityFromContext(r.Context())
			if !ok {
				httperrors.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				httperrors.WriteError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
