package dto

// Phase1LoginRequest carries the university email and the derived
// identity-verification password.
type Phase1LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Phase2LoginRequest carries the institutional ID number and the
// coordinator-issued exam-day password.
type Phase2LoginRequest struct {
	IDNumber string `json:"id_number" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// LoginResponse returns the opaque login-session token the client must
// present on every subsequent call.
type LoginResponse struct {
	Token              string `json:"token"`
	Phase              int    `json:"phase"`
	MustChangePassword bool   `json:"must_change_password"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}
