package events

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered          EventType = "account_registered"
	EventPasswordResetRequested     EventType = "password_reset_requested"
	EventEmailVerificationRequested EventType = "email_verification_requested"
)

// Event represents an identity event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID int64       `json:"account_id"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	Role      domain.Role `json:"role"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
}

// PasswordResetRequestedPayload payload. Token is the opaque signed string
// handed to the notifier; the core never stores it.
type PasswordResetRequestedPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EmailVerificationRequestedPayload payload.
type EmailVerificationRequestedPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
