package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// SignUpService registers new members.
type SignUpService interface {
	SignUp(ctx context.Context, f service.SignUpForm) (*model.Profile, error)
}

// SessionRouter resolves where a signed-in caller belongs.
type SessionRouter interface {
	Dashboard(c echo.Context) (string, bool)
}

// AuthHandler serves the login entry point and self sign-up. Sign-in itself
// happens against the identity provider.
type AuthHandler struct {
	base
	team     SignUpService
	sessions SessionRouter
}

// NewAuthHandler wires an AuthHandler.
func NewAuthHandler(team SignUpService, sessions SessionRouter, timeout time.Duration) *AuthHandler {
	return &AuthHandler{base: newBase(timeout), team: team, sessions: sessions}
}

// Login sends callers that already have a session to their dashboard.
func (h *AuthHandler) Login(c echo.Context) error {
	if dest, ok := h.sessions.Dashboard(c); ok {
		return c.Redirect(http.StatusTemporaryRedirect, dest)
	}
	return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
}

// SignUp creates an identity account and a pending profile.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var f service.SignUpForm
	if err := c.Bind(&f); err != nil {
		return badBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.team.SignUp(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"profile": p,
		"message": "Your application has been submitted. An admin will review it shortly.",
	})
}
