package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// RequireAuth returns a middleware that verifies Firebase session
// cookies (or a bearer ID token) and loads the user's identity into the
// request context.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth is not configured")
			}

			token, err := verifyRequest(c, authClient)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.Set("userUID", token.UID)
			if email, ok := token.Claims["email"].(string); ok {
				c.Set("userEmail", email)
			}
			if role, ok := token.Claims["role"].(string); ok {
				c.Set("userRole", role)
			}

			return next(c)
		}
	}
}

func verifyRequest(c echo.Context, authClient *auth.Client) (*auth.Token, error) {
	ctx := c.Request().Context()

	if cookie, err := c.Cookie("session"); err == nil && cookie.Value != "" {
		return authClient.VerifySessionCookie(ctx, cookie.Value)
	}

	header := c.Request().Header.Get("Authorization")
	idToken := strings.TrimPrefix(header, "Bearer ")
	return authClient.VerifyIDToken(ctx, idToken)
}

// RequireRole gates mutation entry points on the caller's role claim.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("userRole").(string)
			if !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
