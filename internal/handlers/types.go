package handlers

import "github.com/labstack/echo/v4"

// getStringFromContext reads a string value set by the auth middleware.
func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
