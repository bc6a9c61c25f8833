package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

// ProfileLookup resolves the profile behind a session.
type ProfileLookup interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
}

// Guard protects the role areas of the dashboard.
type Guard struct {
	secret   string
	profiles ProfileLookup
	timeout  time.Duration
}

// NewGuard builds a Guard that verifies sessions with secret.
func NewGuard(secret string, profiles ProfileLookup) *Guard {
	return &Guard{secret: secret, profiles: profiles, timeout: 5 * time.Second}
}

// LoginPath is where requests without a session are sent.
const LoginPath = "/login"

// Area admits approved, active members whose role is in roles. Requests
// without a session are redirected to the login page. Members with another
// role are redirected to their own dashboard, or to fallback when set.
// Pending, rejected and deactivated members get 403.
func (g *Guard) Area(fallback string, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, ok := SessionUserID(c, g.secret)
			if !ok {
				return c.Redirect(http.StatusTemporaryRedirect, LoginPath)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), g.timeout)
			defer cancel()
			p, err := g.profiles.Profile(ctx, sub)
			if errors.Is(err, repository.ErrNotFound) {
				return c.Redirect(http.StatusTemporaryRedirect, LoginPath)
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
			}

			if msg := blockedMessage(p.State); msg != "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
			}
			role, _ := p.Role()
			if !allowed[role] {
				dest := role.Dashboard()
				if fallback != "" {
					dest = fallback
				}
				return c.Redirect(http.StatusTemporaryRedirect, dest)
			}

			c.Set(ctxUserID, sub)
			c.Set(ctxRole, string(role))
			c.Set(ctxProfile, p)
			return next(c)
		}
	}
}

// Dashboard returns the landing path for the session's role, for the login
// page redirect. ok is false when the request carries no usable session.
func (g *Guard) Dashboard(c echo.Context) (string, bool) {
	sub, ok := SessionUserID(c, g.secret)
	if !ok {
		return "", false
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), g.timeout)
	defer cancel()
	p, err := g.profiles.Profile(ctx, sub)
	if err != nil || blockedMessage(p.State) != "" {
		return "", false
	}
	role, _ := p.Role()
	return role.Dashboard(), true
}

func blockedMessage(s model.ApprovalState) string {
	switch v := s.(type) {
	case model.Pending:
		return "Application under process"
	case model.Rejected:
		return "Application rejected"
	case model.Approved:
		if !v.Active {
			return "Account is deactivated"
		}
	}
	return ""
}
