package dto

// LoginRequest body para POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse respuesta de login: nunca incluye el token en el body,
// viaja solo en la cookie PreAuth.
type LoginResponse struct {
	Message      string `json:"message"`
	TwoFAEnabled bool   `json:"twoFAEnabled"`
}

// VerifyTOTPRequest body para POST /api/auth/2fa/verify.
type VerifyTOTPRequest struct {
	Token string `json:"token"`
}

// VerifyTOTPResponse confirma la promoción a sesión completa.
type VerifyTOTPResponse struct {
	Success bool `json:"success"`
}

// EnrollTOTPResponse material de enrolamiento para el autenticador.
type EnrollTOTPResponse struct {
	QR         string `json:"qr"`
	OtpauthURL string `json:"otpauth_url"`
}

// TwoFAStatusResponse indica si la cuenta tiene 2FA enrolado.
type TwoFAStatusResponse struct {
	TwoFAEnabled bool `json:"twoFAEnabled"`
}

// ResetTOTPRequest body para POST /api/auth/2fa/reset (solo admin).
type ResetTOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CheckAuthResponse estado de sesión reportado por GET /api/check-auth.
type CheckAuthResponse struct {
	AuthStatus string `json:"authStatus"` // authenticated | pre-2fa | none
}
