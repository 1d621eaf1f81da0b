package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const minPasswordLength = 8

// TokenPair bundles an access/refresh token issuance.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// RegisterInput carries registration fields. First/last name travel to the
// notifier only; profile storage belongs to an external collaborator.
type RegisterInput struct {
	Email       string
	Password    string
	PhoneNumber *string
	Role        domain.Role
	FirstName   string
	LastName    string
}

// AuthService coordinates registration, login, token refresh, and the
// out-of-band password-reset and email-verification flows. Sessions are
// stateless: logout is a client-side token discard, refresh issues a new
// pair without revoking the old one, and reset/verification tokens stay
// valid until natural expiry (no server-side consumption record).
type AuthService struct {
	accounts   repository.AccountRepository
	codec      *auth.TokenCodec
	hasher     *auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts: deps.AccountRepo,
		codec: auth.NewTokenCodec(cfg.Auth.JWTSecret, auth.TokenTTLs{
			Access:            cfg.Auth.AccessTokenTTL(),
			Refresh:           cfg.Auth.RefreshTokenTTL(),
			PasswordReset:     cfg.Auth.PasswordResetTTL(),
			EmailVerification: cfg.Auth.EmailVerificationTTL(),
		}),
		hasher:     auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers),
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Register creates a new account and issues its first token pair. The store's
// unique constraints are authoritative for email/phone uniqueness; the
// lookups here only shortcut the common case.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Account, *TokenPair, error) {
	if !in.Role.Valid() {
		return nil, nil, apperrors.NewValidationError("user type must be consumer, provider, or admin", nil)
	}
	if len(in.Password) < minPasswordLength {
		return nil, nil, apperrors.NewWeakPassword()
	}

	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, nil, apperrors.NewDuplicateEmail()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	if in.PhoneNumber != nil && *in.PhoneNumber != "" {
		if _, err := s.accounts.GetByPhone(ctx, *in.PhoneNumber); err == nil {
			return nil, nil, apperrors.NewDuplicatePhone()
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, err
		}
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, nil, err
	}

	account := &domain.Account{
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
		Verified:     false,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(account.ID)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventAccountRegistered,
		AccountID: account.ID,
		Email:     account.Email,
		Payload: events.AccountRegisteredPayload{
			Role:      account.Role,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		},
	})

	return account, pair, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password fail identically so callers cannot probe account existence.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, *TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, err
	}

	if err := s.hasher.Compare(ctx, account.PasswordHash, password); err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Retryable {
			return nil, nil, err
		}
		return nil, nil, apperrors.NewInvalidCredentials()
	}

	if !account.Active {
		return nil, nil, apperrors.NewAccountDeactivated()
	}

	// Best effort; a failed timestamp write never fails the login.
	now := time.Now()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("account_id", account.ID), zap.Error(err))
	} else {
		account.LastLogin = &now
	}

	pair, err := s.issuePair(account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Refresh validates a refresh token and issues a new access/refresh pair.
// The old refresh token stays valid until expiry; there is no revocation
// store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind != auth.TokenKindRefresh {
		return nil, apperrors.NewWrongTokenKind()
	}

	accountID, err := claims.AccountID()
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, err
	}
	if !account.Active {
		return nil, apperrors.NewInvalidToken()
	}

	return s.issuePair(account.ID)
}

// Logout acknowledges a stateless logout; clients discard their tokens.
func (s *AuthService) Logout(_ context.Context) error {
	return nil
}

// ForgotPassword issues a password-reset token and hands it to the notifier.
// The caller always gets the same acknowledgment whether or not the email
// exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token, expiresAt, err := s.codec.Issue(account.ID, auth.TokenKindPasswordReset)
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventPasswordResetRequested,
		AccountID: account.ID,
		Email:     account.Email,
		Payload:   events.PasswordResetRequestedPayload{Token: token, ExpiresAt: expiresAt},
	})
	return nil
}

// ResetPassword consumes a password-reset token and stores a new hash.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	claims, err := s.codec.Verify(tokenStr)
	if err != nil {
		return err
	}
	if claims.Kind != auth.TokenKindPasswordReset {
		return apperrors.NewWrongTokenKind()
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.NewWeakPassword()
	}

	account, err := s.lookupSubject(ctx, claims)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePasswordHash(ctx, account.ID, hash)
}

// VerifyEmail consumes an email-verification token and flips the verified
// flag.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) error {
	claims, err := s.codec.Verify(tokenStr)
	if err != nil {
		return err
	}
	if claims.Kind != auth.TokenKindEmailVerification {
		return apperrors.NewWrongTokenKind()
	}

	account, err := s.lookupSubject(ctx, claims)
	if err != nil {
		return err
	}
	return s.accounts.UpdateVerified(ctx, account.ID, true)
}

// ResendVerification issues a fresh email-verification token for unverified
// accounts. Like ForgotPassword it acknowledges identically whether or not
// the email exists, and silently skips already-verified accounts.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if account.Verified {
		return nil
	}

	token, expiresAt, err := s.codec.Issue(account.ID, auth.TokenKindEmailVerification)
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventEmailVerificationRequested,
		AccountID: account.ID,
		Email:     account.Email,
		Payload:   events.EmailVerificationRequestedPayload{Token: token, ExpiresAt: expiresAt},
	})
	return nil
}

// Deactivate flips the active flag off. Accounts are never physically
// deleted.
func (s *AuthService) Deactivate(ctx context.Context, accountID int64) error {
	if err := s.accounts.UpdateActive(ctx, accountID, false); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewAccountNotFound()
		}
		return err
	}
	return nil
}

// Reactivate flips the active flag back on.
func (s *AuthService) Reactivate(ctx context.Context, accountID int64) error {
	if err := s.accounts.UpdateActive(ctx, accountID, true); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewAccountNotFound()
		}
		return err
	}
	return nil
}

// TokenCodec exposes the underlying codec for guard wiring.
func (s *AuthService) TokenCodec() *auth.TokenCodec {
	return s.codec
}

func (s *AuthService) issuePair(accountID int64) (*TokenPair, error) {
	access, expiresAt, err := s.codec.Issue(accountID, auth.TokenKindAccess)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.codec.Issue(accountID, auth.TokenKindRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, AccessExpiresAt: expiresAt}, nil
}

func (s *AuthService) lookupSubject(ctx context.Context, claims *auth.Claims) (*domain.Account, error) {
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAccountNotFound()
		}
		return nil, err
	}
	return account, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
