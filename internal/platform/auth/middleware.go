package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	UserRoleKey contextKey = "user_role"
	SessionKey  contextKey = "session"
)

// publicPaths lists URL paths that bypass authentication: the login endpoint
// and infrastructure endpoints (health checks).
var publicPaths = map[string]bool{
	"/auth/login": true,
	"/health":     true,
	"/health/db":  true,
}

// Skipper returns true for requests whose path should skip authentication.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// JWTMiddleware validates bearer tokens and resolves the server-side session
// established at login. A syntactically valid token whose session has been
// cleared (logout, forced clear) is rejected. The skipper exempts public
// endpoints.
func JWTMiddleware(issuer *TokenIssuer, store *SessionStore, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sess, ok := store.Current(claims.ID)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, sess.UserID)
			ctx = context.WithValue(ctx, UsernameKey, sess.Username)
			ctx = context.WithValue(ctx, UserRoleKey, sess.Role)
			ctx = context.WithValue(ctx, SessionKey, sess)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func UsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(UsernameKey).(string)
	return name
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(SessionKey).(*Session)
	return sess
}
