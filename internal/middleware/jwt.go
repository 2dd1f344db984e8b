package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's claims into the request context.  The
// provided secret must match the one used when issuing tokens.
// Handlers behind this middleware read the caller via c.Get("user_id")
// and c.Get("role").  A missing token is a 401, an invalid or expired
// one a 403, matching the gateway contract.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, ok := parseClaims(raw, secret)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "invalid or expired token"})
			}
			storeClaims(c, claims)
			return next(c)
		}
	}
}

// JWTOptional behaves like JWTAuth but lets unauthenticated requests
// through with no identity in context.  It serves the public endpoints
// that attach the caller's account when a token happens to be present
// (service request submission, support contact).  A token that is
// present but invalid is still rejected rather than silently treated
// as anonymous.
func JWTOptional(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			claims, ok := parseClaims(raw, secret)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "invalid or expired token"})
			}
			storeClaims(c, claims)
			return next(c)
		}
	}
}

// parseClaims validates an HS256 token and returns its claim map.
func parseClaims(raw, secret string) (jwt.MapClaims, bool) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}

// storeClaims copies the claims handlers care about into the echo
// context.  Type assertions are left to the consumers.
func storeClaims(c echo.Context, claims jwt.MapClaims) {
	c.Set("user_id", claims["sub"])
	c.Set("role", claims["role"])
	c.Set("email", claims["email"])
	c.Set("user_type", claims["user_type"])
}
