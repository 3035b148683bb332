package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/events"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

var (
	ErrIncorrectCredentials = apperrors.NewUnauthorized("INVALID_CREDENTIALS", "Incorrect email or password.")
	ErrTooManyAttempts      = apperrors.NewTooManyRequests("Too many failed login attempts. Please try again later.")
	ErrWrongCurrentPassword = apperrors.NewUnauthorized("INVALID_CURRENT_PASSWORD", "Your current password is wrong.")
	ErrResetTokenInvalid    = apperrors.NewBadRequest("Token is invalid or has expired.")
	ErrEmailTaken           = apperrors.NewConflict("A user with this email already exists.")
	ErrSlugTaken            = apperrors.NewConflict("A project with this slug already exists.")
	ErrSelfModification     = apperrors.NewBadRequest("You cannot change the role or status of your own account.")
)

// notFound replaces a bare repository miss with a named 404.
func notFound(err error, resource string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperrors.NewNotFound(resource)
	}
	return err
}

// publish hands the event to the dispatcher. Delivery failures are logged only.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}
