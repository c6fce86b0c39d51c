package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/model"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/security"
)

const totpIssuer = "schoolhub"

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	SetTOTPSecret(ctx context.Context, userID int64, secret string) error
}

type SessionWriter interface {
	Create(ctx context.Context, session model.Session) error
}

// OtherSessionTerminator ends the user's remaining sessions when a new
// login comes in.
type OtherSessionTerminator interface {
	TerminateOthers(ctx context.Context, userID int64, keepSessionID string, reason enums.TerminationReason) (int, error)
}

type Service struct {
	jwt        *JWTManager
	users      UserStore
	sessions   SessionWriter
	terminator OtherSessionTerminator
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, users UserStore, sessions SessionWriter, terminator OtherSessionTerminator) *Service {
	return &Service{
		jwt:        jwtManager,
		users:      users,
		sessions:   sessions,
		terminator: terminator,
		now:        time.Now,
	}
}

// Login checks the credentials, creates a session row, and kicks the
// user's other active sessions with reason new_login. Admins with an
// enrolled TOTP secret must also present a valid code.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidInput
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidLogin
		}
		return LoginResult{}, fmt.Errorf("get user: %w", err)
	}

	if err := security.CheckPassword(user.PasswordHash, input.Password); err != nil {
		return LoginResult{}, ErrInvalidLogin
	}

	if user.Role == enums.RoleAdmin && user.TOTPEnrolled() {
		if strings.TrimSpace(input.TOTPCode) == "" {
			return LoginResult{}, ErrTOTPRequired
		}
		if !security.ValidateTOTP(user.TOTPSecret, input.TOTPCode, s.now()) {
			return LoginResult{}, ErrInvalidTOTP
		}
	}

	sessionToken, err := NewSessionToken()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session token: %w", err)
	}

	// Device type comes from the client; an unknown value is stored as
	// empty rather than polluting the session table.
	deviceType := input.DeviceType
	if !deviceType.Valid() {
		deviceType = ""
	}

	session := model.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Token:      sessionToken,
		IsActive:   true,
		DeviceType: deviceType,
		DeviceID:   strings.TrimSpace(input.DeviceID),
		UserAgent:  strings.TrimSpace(input.UserAgent),
		IP:         strings.TrimSpace(input.IP),
		CreatedAt:  s.now().UTC(),
	}
	session.LastActiveAt = session.CreatedAt

	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	if s.terminator != nil {
		if _, err := s.terminator.TerminateOthers(ctx, user.ID, session.ID, enums.TerminationNewLogin); err != nil {
			return LoginResult{}, fmt.Errorf("terminate previous sessions: %w", err)
		}
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return LoginResult{
		AccessToken:   accessToken,
		SessionToken:  sessionToken,
		SessionID:     session.ID,
		AccessExpires: accessExpires,
		Me: Me{
			ID:       user.ID,
			Username: user.Username,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

// EnrollTOTP generates and stores a fresh TOTP secret for the user,
// returning the otpauth URL and a QR data URL for the authenticator app.
func (s *Service) EnrollTOTP(ctx context.Context, userID int64, accountName string) (TOTPEnrollment, error) {
	if userID <= 0 || strings.TrimSpace(accountName) == "" {
		return TOTPEnrollment{}, ErrInvalidInput
	}

	secret, otpURL, err := security.GenerateTOTPSecret(totpIssuer, accountName)
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("generate totp secret: %w", err)
	}

	qrDataURL, err := security.MakeQRCodeDataURL(otpURL, 256)
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("render totp qr: %w", err)
	}

	if err := s.users.SetTOTPSecret(ctx, userID, secret); err != nil {
		return TOTPEnrollment{}, fmt.Errorf("store totp secret: %w", err)
	}

	return TOTPEnrollment{
		Secret:    secret,
		OTPURL:    otpURL,
		QRDataURL: qrDataURL,
	}, nil
}
