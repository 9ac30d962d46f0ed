package serverutils

import (
	"errors"

	"cleaning-reservation-be/internal/repository/implementation"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON bodies
// with a status code chosen from the error kind.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	code, details := StatusFor(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return ctx.Status(code).JSON(ErrorResponse(code, message, details))
}

// StatusFor maps an error to its HTTP status and optional structured details.
func StatusFor(err error) (int, interface{}) {
	var fiberErr *fiber.Error
	var validationErr *reservation.ValidationError
	var windowErr *reservation.WindowError
	var transitionErr *reservation.TransitionError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, nil
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Fields
	case errors.As(err, &windowErr):
		return fiber.StatusUnprocessableEntity, fiber.Map{"cutoff": windowErr.Cutoff, "same_day": windowErr.SameDay}
	case errors.As(err, &transitionErr):
		return fiber.StatusConflict, fiber.Map{"from": transitionErr.From, "to": transitionErr.To}
	case errors.Is(err, reservation.ErrValidation):
		return fiber.StatusBadRequest, nil
	case errors.Is(err, reservation.ErrForbidden):
		return fiber.StatusForbidden, nil
	case errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, reservation.ErrRequestNotFound),
		errors.Is(err, implementation.ErrNotificationNotFound):
		return fiber.StatusNotFound, nil
	case errors.Is(err, reservation.ErrConflict),
		errors.Is(err, reservation.ErrInvalidTransition),
		errors.Is(err, reservation.ErrDuplicateRequest),
		errors.Is(err, reservation.ErrAlreadyResolved),
		errors.Is(err, reservation.ErrAlreadyLate),
		errors.Is(err, reservation.ErrAlreadyCompleted):
		return fiber.StatusConflict, nil
	case errors.Is(err, reservation.ErrWindowClosed),
		errors.Is(err, reservation.ErrQuotaExceeded):
		return fiber.StatusUnprocessableEntity, nil
	default:
		return fiber.StatusInternalServerError, nil
	}
}
