// Package service holds the dashboard workflows. Services validate input
// before any store call, then delegate to repositories accepted as small
// interfaces so tests can substitute fakes.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

// ValidationError is a user-facing input problem. See model.ValidationError.
type ValidationError = model.ValidationError

var (
	// ErrDeviceUnavailable matches a session create that lost a race for a
	// unit. The concrete error lists the serials.
	ErrDeviceUnavailable = repository.ErrDeviceUnavailable

	// ErrDuplicateRegion is returned when a subregion name or code is taken.
	ErrDuplicateRegion = errors.New("You cannot add a region with the same name or code. This region already exists.")

	// ErrRegionLocked is returned for edits aimed at a primary region.
	ErrRegionLocked = errors.New("primary regions cannot be changed")
)

// EventPublisher sends domain events. Publishing is best effort: callers
// log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

var validate = validator.New()

// check runs the struct's validate tags and reports the first failing
// field with the message registered for it. Fields are checked in
// declaration order, so the struct layout fixes the order of messages.
func check(v any, messages map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	if msg, ok := messages[first.StructField()]; ok {
		return model.Invalid(msg)
	}
	return model.Invalid(first.Error())
}

// clean trims s and returns nil when nothing is left.
func clean(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
