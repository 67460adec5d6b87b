package middleware

import (
	"errors"
	"strings"

	"libtrack/internal/config"
	"libtrack/internal/core/domain"
	"libtrack/internal/pkg/jwt"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Context locals set by the auth middlewares
const (
	LocalUserID    = "userID"
	LocalStudentID = "studentID"
	LocalUsername  = "username"
	LocalRole      = "role"
	LocalActor     = "actor"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth middleware - doesn't require auth but sets user info if token present
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := extractToken(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == string(allowedRole) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// ActorFrom returns the actor resolved for this request, anonymous when no
// valid token was presented
func ActorFrom(c *fiber.Ctx) domain.Actor {
	if actor, ok := c.Locals(LocalActor).(domain.Actor); ok {
		return actor
	}
	return domain.Anonymous()
}

// ActorFromClaims builds a verified actor from signed access token claims
func ActorFromClaims(claims *jwt.Claims) domain.Actor {
	return domain.Actor{
		UserID:    claims.UserID,
		StudentID: claims.StudentID,
		Role:      domain.Role(claims.Role),
		Verified:  true,
	}
}

// extractToken reads the access token from the cookie, then the Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func setClaims(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalStudentID, claims.StudentID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalRole, claims.Role)
	c.Locals(LocalActor, ActorFromClaims(claims))
}
