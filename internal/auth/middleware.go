package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const principalKey = "auth_principal"

// Guard resolves bearer tokens to live account records for protected routes.
type Guard struct {
	codec    *TokenCodec
	accounts repository.AccountRepository
}

// NewGuard constructs the authorization guard.
func NewGuard(codec *TokenCodec, accounts repository.AccountRepository) *Guard {
	return &Guard{codec: codec, accounts: accounts}
}

// Resolve verifies an access token and loads the account it names.
// Verification happens before any lookup, so a tampered or expired token
// fails as invalid-token rather than unauthorized.
func (g *Guard) Resolve(ctx context.Context, tokenStr string) (*domain.Account, error) {
	claims, err := g.codec.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindAccess {
		return nil, apperrors.NewWrongTokenKind()
	}

	accountID, err := claims.AccountID()
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token subject")
	}

	account, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("account not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !account.Active {
		return nil, apperrors.NewUnauthorized("account not found")
	}
	return account, nil
}

// Handle enforces authentication for protected routes and stores the
// resolved account in the request context.
func (g *Guard) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	account, err := g.Resolve(c.UserContext(), parts[1])
	if err != nil {
		return err
	}

	c.Locals(principalKey, account)
	return c.Next()
}

// AccountFromContext retrieves the authenticated account.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	account, ok := val.(*domain.Account)
	return account, ok
}
