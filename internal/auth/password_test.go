package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

func TestHasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(bcrypt.MinCost, 4)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "correct horse battery", hash)

	require.NoError(t, hasher.Compare(ctx, hash, "correct horse battery"))
	require.Error(t, hasher.Compare(ctx, hash, "wrong password"))
}

func TestHasher_HashesAreSalted(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(bcrypt.MinCost, 4)
	ctx := context.Background()

	first, err := hasher.Hash(ctx, "samepassword")
	require.NoError(t, err)
	second, err := hasher.Hash(ctx, "samepassword")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestHasher_CancelledContextIsRetryable(t *testing.T) {
	t.Parallel()

	// Saturate the single worker slot so acquire must wait on the context.
	hasher := NewHasher(bcrypt.MinCost, 1)
	hasher.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "whatever")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeRetryable, apperrors.CodeOf(err))
}
