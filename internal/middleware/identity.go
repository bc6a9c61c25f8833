package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// Context keys set by JWTAuth and the area guard.
const (
	ctxUserID  = "user_id"
	ctxRole    = "role"
	ctxProfile = "profile"
)

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok {
		return s
	}
	return ""
}

// CurrentProfile returns the profile loaded by the area guard.
func CurrentProfile(c echo.Context) (*model.Profile, bool) {
	p, ok := c.Get(ctxProfile).(*model.Profile)
	return p, ok && p != nil
}

// keyUser is the user part of cache and rate limit keys.
func keyUser(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
