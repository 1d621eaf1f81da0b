package auth

import (
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// TokenKind distinguishes the operation a token is good for. Verify does not
// enforce kind itself; callers compare against the kind they expect.
type TokenKind string

const (
	TokenKindAccess            TokenKind = "access"
	TokenKindRefresh           TokenKind = "refresh"
	TokenKindPasswordReset     TokenKind = "password_reset"
	TokenKindEmailVerification TokenKind = "email_verification"
)

// TokenTTLs holds per-kind token lifetimes.
type TokenTTLs struct {
	Access            time.Duration
	Refresh           time.Duration
	PasswordReset     time.Duration
	EmailVerification time.Duration
}

// TokenCodec signs and verifies compact bearer tokens carrying an account id,
// a token kind, and an expiry.
type TokenCodec struct {
	secret []byte
	ttls   TokenTTLs
}

// NewTokenCodec builds a codec. Zero TTLs fall back to sane defaults.
func NewTokenCodec(secret string, ttls TokenTTLs) *TokenCodec {
	if ttls.Access == 0 {
		ttls.Access = 30 * time.Minute
	}
	if ttls.Refresh == 0 {
		ttls.Refresh = 7 * 24 * time.Hour
	}
	if ttls.PasswordReset == 0 {
		ttls.PasswordReset = time.Hour
	}
	if ttls.EmailVerification == 0 {
		ttls.EmailVerification = 24 * time.Hour
	}
	return &TokenCodec{secret: []byte(secret), ttls: ttls}
}

// Claims describes the signed JWT payload.
type Claims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim back into a numeric account id.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, apperrors.NewInvalidToken()
	}
	return id, nil
}

// Issue builds and signs a token of the given kind for the account.
func (tc *TokenCodec) Issue(accountID int64, kind TokenKind) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tc.ttlFor(kind))
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates signature and expiry and returns the claims. Any failure,
// whether a bad signature, malformed payload, or elapsed expiry, surfaces as
// the same invalid-token error.
func (tc *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, apperrors.NewInvalidToken()
		}
		return tc.secret, nil
	})
	if err != nil {
		return nil, apperrors.NewInvalidToken()
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.NewInvalidToken()
	}
	return claims, nil
}

func (tc *TokenCodec) ttlFor(kind TokenKind) time.Duration {
	switch kind {
	case TokenKindRefresh:
		return tc.ttls.Refresh
	case TokenKindPasswordReset:
		return tc.ttls.PasswordReset
	case TokenKindEmailVerification:
		return tc.ttls.EmailVerification
	default:
		return tc.ttls.Access
	}
}
