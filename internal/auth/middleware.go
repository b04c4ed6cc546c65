package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalsUserID is the fiber locals key JWTMiddleware stores the owner id under.
const LocalsUserID = "user_id"

var errInvalidClaims = errors.New("token claims invalid")

// JWTMiddleware validates HS256 bearer tokens and stores the token's user id
// in locals. Tokens without an expiry are rejected.
func JWTMiddleware(secret string) fiber.Handler {
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}
	return func(c *fiber.Ctx) error {
		raw := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := verify(raw, keyFunc)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return fiber.NewError(fiber.StatusUnauthorized, "token expired")
		case err != nil:
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		c.Locals(LocalsUserID, claims.UserID)
		return c.Next()
	}
}

// UserID returns the owner id stored by JWTMiddleware, or "" on unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsUserID).(string)
	return id
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

func verify(raw string, keyFunc jwt.Keyfunc) (*Claims, error) {
	parsed, err := parseMiddlewareClaimsFn(raw, &Claims{}, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, errInvalidClaims
	}
	return claims, nil
}

func bearerFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
