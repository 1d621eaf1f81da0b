package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

func TestTokenCodec_IssueVerifyRoundtrip(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("test-secret", TokenTTLs{})

	for _, kind := range []TokenKind{TokenKindAccess, TokenKindRefresh, TokenKindPasswordReset, TokenKindEmailVerification} {
		token, expiresAt, err := codec.Issue(42, kind)
		require.NoError(t, err)
		require.True(t, expiresAt.After(time.Now()))

		claims, err := codec.Verify(token)
		require.NoError(t, err)
		require.Equal(t, kind, claims.Kind)

		id, err := claims.AccountID()
		require.NoError(t, err)
		require.Equal(t, int64(42), id)
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("test-secret", TokenTTLs{Access: -time.Minute})

	token, _, err := codec.Issue(1, TokenKindAccess)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeInvalidToken, apperrors.CodeOf(err))
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenCodec("old-secret", TokenTTLs{})
	verifier := NewTokenCodec("rotated-secret", TokenTTLs{})

	token, _, err := issuer.Issue(7, TokenKindAccess)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Equal(t, apperrors.CodeInvalidToken, apperrors.CodeOf(err))
}

func TestTokenCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("test-secret", TokenTTLs{})

	_, err := codec.Verify("not.a.jwt")
	require.Equal(t, apperrors.CodeInvalidToken, apperrors.CodeOf(err))
}

func TestTokenCodec_DistinctTokensPerInstant(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("test-secret", TokenTTLs{})

	first, _, err := codec.Issue(1, TokenKindAccess)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	second, _, err := codec.Issue(1, TokenKindAccess)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
