package auth

import (
	"errors"
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidLogin covers unknown usernames and wrong passwords alike.
	ErrInvalidLogin = errors.New("invalid username or password")
	ErrTOTPRequired = errors.New("totp code required")
	ErrInvalidTOTP  = errors.New("invalid totp code")
)

type LoginInput struct {
	Username   string
	Password   string
	TOTPCode   string
	DeviceType enums.DeviceType
	DeviceID   string
	UserAgent  string
	IP         string
}

type Me struct {
	ID       int64
	Username string
	FullName string
	Role     enums.Role
}

type LoginResult struct {
	AccessToken   string
	SessionToken  string
	SessionID     string
	AccessExpires time.Time
	Me            Me
}

type TOTPEnrollment struct {
	Secret    string
	OTPURL    string
	QRDataURL string
}
