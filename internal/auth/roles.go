package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// RequireRole is the pure role predicate layered on top of Resolve. Gates
// compose by sequential application, never by inheritance.
func RequireRole(account *domain.Account, role domain.Role) error {
	if account == nil || account.Role != role {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// RequireConsumer restricts a route to consumer accounts.
func RequireConsumer() fiber.Handler {
	return requireRoleHandler(domain.RoleConsumer)
}

// RequireProvider restricts a route to provider accounts.
func RequireProvider() fiber.Handler {
	return requireRoleHandler(domain.RoleProvider)
}

// RequireAdmin restricts a route to admin accounts.
func RequireAdmin() fiber.Handler {
	return requireRoleHandler(domain.RoleAdmin)
}

func requireRoleHandler(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := AccountFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := RequireRole(account, role); err != nil {
			return err
		}
		return c.Next()
	}
}
