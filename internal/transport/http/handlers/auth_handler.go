package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/pkg/validate"
	authsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/auth"
	ratesvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/rate"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/dto"
	httperrors "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/transport/http/errors"
)

type AuthHandler struct {
	service    *authsvc.Service
	terminator *sessionsvc.Terminator
	limiter    *ratesvc.Limiter
}

func NewAuthHandler(service *authsvc.Service, terminator *sessionsvc.Terminator, limiter *ratesvc.Limiter) *AuthHandler {
	return &AuthHandler{
		service:    service,
		terminator: terminator,
		limiter:    limiter,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !validate.Required(req.Username) || !validate.Required(req.Password) {
		writeBadRequest(w, "username and password are required")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowLogin(r.Context(), req.Username, r.RemoteAddr)
		if err != nil {
			writeInternal(w, "internal server error")
			return
		}
		if !allowed {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.Envelope{
				Success: false,
				Message: "too many login attempts",
				Data:    httperrors.RateLimitData{RetryAfterSec: retryAfter},
			})
			return
		}
	}

	res, err := h.service.Login(r.Context(), authsvc.LoginInput{
		Username:   req.Username,
		Password:   req.Password,
		TOTPCode:   req.TOTPCode,
		DeviceType: enums.DeviceType(req.DeviceType),
		DeviceID:   req.DeviceID,
		UserAgent:  r.UserAgent(),
		IP:         r.RemoteAddr,
	})
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteSuccess(w, "login successful", dto.LoginData{
		AccessToken:  res.AccessToken,
		SessionToken: res.SessionToken,
		SessionID:    res.SessionID,
		ExpiresInSec: max(0, int64(time.Until(res.AccessExpires).Seconds())),
		Me: dto.AuthMeResponse{
			ID:       res.Me.ID,
			Username: res.Me.Username,
			FullName: res.Me.FullName,
			Role:     string(res.Me.Role),
		},
	})
}

// Logout terminates the caller's own session with reason manual. A
// session that is already gone still counts as logged out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.terminator == nil {
		writeInternal(w, "session service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	err := h.terminator.Terminate(r.Context(), identity.SessionID, identity.UserID, enums.TerminationManual)
	if err != nil && !errors.Is(err, sessionsvc.ErrSessionNotFound) {
		handleSessionError(w, err)
		return
	}

	httperrors.WriteSuccess(w, "logged out", nil)
}

type totpEnrollRequest struct {
	AccountName string `json:"account_name"`
}

func (h *AuthHandler) EnrollTOTP(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	if identity.Role != enums.RoleAdmin {
		httperrors.WriteError(w, http.StatusForbidden, "totp enrollment is admin-only")
		return
	}

	var req totpEnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !validate.Required(req.AccountName) {
		writeBadRequest(w, "account_name is required")
		return
	}

	enrollment, err := h.service.EnrollTOTP(r.Context(), identity.UserID, req.AccountName)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteSuccess(w, "totp enrolled", dto.TOTPEnrollData{
		Secret:    enrollment.Secret,
		OTPURL:    enrollment.OTPURL,
		QRDataURL: enrollment.QRDataURL,
	})
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "request validation failed")
	case errors.Is(err, authsvc.ErrInvalidLogin):
		writeUnauthorized(w, "invalid username or password")
	case errors.Is(err, authsvc.ErrTOTPRequired):
		writeUnauthorized(w, "totp code required")
	case errors.Is(err, authsvc.ErrInvalidTOTP):
		writeUnauthorized(w, "invalid totp code")
	default:
		writeInternal(w, "internal server error")
	}
}

func handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionsvc.ErrInvalidInput):
		writeBadRequest(w, "request validation failed")
	case errors.Is(err, sessionsvc.ErrSessionNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "session not found")
	default:
		writeInternal(w, "internal server error")
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusUnauthorized, message)
}

func writeInternal(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusInternalServerError, message)
}
