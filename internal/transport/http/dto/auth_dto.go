package dto

type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	TOTPCode   string `json:"totp_code,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
}

type AuthMeResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginData struct {
	AccessToken  string         `json:"access_token"`
	SessionToken string         `json:"session_token"`
	SessionID    string         `json:"session_id"`
	ExpiresInSec int64          `json:"expires_in_sec"`
	Me           AuthMeResponse `json:"me"`
}

type TOTPEnrollData struct {
	Secret    string `json:"secret"`
	OTPURL    string `json:"otp_url"`
	QRDataURL string `json:"qr_data_url"`
}
