package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"` // nil for pure-OAuth accounts
	GoogleID     *string   `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanPasswordLogin reports whether the account has both a stored hash and a
// confirmed email.
func (u *User) CanPasswordLogin() bool {
	return u != nil && u.IsVerified && u.PasswordHash != nil && *u.PasswordHash != ""
}

type RequestOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleCallbackRequest struct {
	Code string `json:"code" binding:"required"`
}

type GoogleSignInRequest struct {
	TokenID string `json:"tokenId" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type RegisterResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}
