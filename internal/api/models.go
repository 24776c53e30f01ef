package api

// LoginRequest is the body of POST /auth/login. Login is a username, or an
// email address when it contains an @.
type LoginRequest struct {
	Login    string `json:"username_or_email" validate:"required"`
	Password string `json:"password"          validate:"required"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot_password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset_password. The reset
// token travels in the Authorization header.
type ResetPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
