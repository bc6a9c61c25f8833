// Package handler exposes the services over HTTP as JSON endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/middleware"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
)

// DefaultTimeout bounds the store work of one request.
const DefaultTimeout = 5 * time.Second

// base carries what every handler needs.
type base struct {
	timeout time.Duration
}

func newBase(timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{timeout: timeout}
}

func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), b.timeout)
}

// statusFor maps service and store errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDeviceUnavailable),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateRegion),
		errors.Is(err, service.ErrRegionLocked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": message}. Store messages are passed through.
func fail(c echo.Context, err error) error {
	return c.JSON(statusFor(err), echo.Map{"error": err.Error()})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

// caller is the authenticated user id set by the area guard.
func caller(c echo.Context) string {
	return middleware.UserID(c)
}
