package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides the user identifier used in rate limit keys,
// pulled from the context values JWTAuth stores.  When no user is
// authenticated, "anon" is returned so unauthenticated traffic shares a
// bucket per IP.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's ID for use in rate
// limit keys.  JWT numeric claims decode as float64, so any scalar value
// is accepted and formatted.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "anon"
	case string:
		if v == "" {
			return "anon"
		}
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
