package middleware

import (
	"strconv"
	"strings"

	"go-cake-store/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalTenantID = "tenant_id"
	LocalUserID   = "user_id"
	LocalEmail    = "user_email"
	LocalName     = "user_name"

	TenantHeader = "X-Tenant-ID"
)

// RequireIdentity validates the bearer token and sets tenant and user in context.
// Websocket clients cannot set headers, so the token may also come as ?access_token=.
func RequireIdentity(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		if claims.UserID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token does not identify a user"})
		}

		c.Locals(LocalTenantID, claims.TenantID)
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalName, claims.Name)
		return c.Next()
	}
}

// RequireTenant resolves the tenant for anonymous catalog reads: a valid token
// wins, otherwise the X-Tenant-ID header is used.
func RequireTenant(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
			}
			c.Locals(LocalTenantID, claims.TenantID)
			c.Locals(LocalUserID, claims.UserID)
			return c.Next()
		}

		raw := strings.TrimSpace(c.Get(TenantHeader))
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing tenant: send a token or the " + TenantHeader + " header"})
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + TenantHeader + " header"})
		}
		c.Locals(LocalTenantID, uint(id))
		return c.Next()
	}
}

// TenantID returns the tenant resolved by RequireIdentity or RequireTenant, or 0.
func TenantID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalTenantID).(uint)
	return id
}

// UserID returns the authenticated user, or 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if q := c.Query("access_token"); q != "" {
			return q, true
		}
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
