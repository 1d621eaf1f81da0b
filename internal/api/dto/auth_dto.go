package dto

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	UserType    string  `json:"user_type"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest payload for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest payload for reset-link requests.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload for reset confirmation.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyEmailRequest payload for email verification.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ResendVerificationRequest payload for verification resend.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// TokenResponse standard response for token issuance.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AccountResponse is the outward account shape; the password hash never
// appears here.
type AccountResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number"`
	UserType    string     `json:"user_type"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewAccountResponse maps a domain account to its response shape.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID,
		Email:       account.Email,
		PhoneNumber: account.PhoneNumber,
		UserType:    string(account.Role),
		IsActive:    account.Active,
		IsVerified:  account.Verified,
		LastLogin:   account.LastLogin,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

// NewTokenResponse maps an issued token pair to its response shape.
func NewTokenResponse(access, refresh string, expiresAt time.Time) TokenResponse {
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
	}
}
