// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"fmt"

	"cleaning-reservation-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	localUserId = "user_id"
	localRole   = "role"
)

// NewJwtMiddleware verifies an HS256 bearer token and stores the caller's
// user_id and role claims in the request locals. Browsers cannot set headers on
// a websocket handshake, so upgrades may pass the token as ?token= instead.
func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := bearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token", nil))
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token", nil))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims", nil))
		}

		userId, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		if _, err := uuid.Parse(userId); err != nil || !validRole(entity.UserRole(role)) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims", nil))
		}

		ctx.Locals(localUserId, userId)
		ctx.Locals(localRole, role)
		return ctx.Next()
	}
}

func bearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Query("token")
	}
	return ""
}

func validRole(role entity.UserRole) bool {
	switch role {
	case entity.UserRoleCustomer, entity.UserRoleCleaner, entity.UserRoleAdmin:
		return true
	}
	return false
}

// ActorFromCtx returns the authenticated caller set by the JWT middleware.
func ActorFromCtx(ctx *fiber.Ctx) (entity.Actor, error) {
	userIdStr, _ := ctx.Locals(localUserId).(string)
	role, _ := ctx.Locals(localRole).(string)

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return entity.Actor{}, fiber.ErrUnauthorized
	}
	return entity.Actor{UserId: userId, Role: entity.UserRole(role)}, nil
}
