package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ptu-audit/internal/application/audit"
	"github.com/jhoicas/ptu-audit/internal/application/dto"
	"github.com/jhoicas/ptu-audit/internal/domain"
)

// statusFor traduce errores de dominio a status HTTP y código.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return fiber.StatusConflict, "NO_SESSION"
	case errors.Is(err, domain.ErrEmptyDistribution), errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnreadableDocument), errors.Is(err, domain.ErrDigestFailed):
		return fiber.StatusUnprocessableEntity, "UNPROCESSABLE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusRequestTimeout, "CANCELED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// errorBody arma el cuerpo de error; msg vacío usa err.Error().
func errorBody(err error, msg string) (int, dto.ErrorResponse) {
	status, code := statusFor(err)
	if msg == "" {
		msg = err.Error()
	}
	body := dto.ErrorResponse{Code: code, Message: msg}
	var pe *audit.PhaseError
	if errors.As(err, &pe) {
		body.Phase = pe.Phase
	}
	return status, body
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := errorBody(err, "")
	return c.Status(status).JSON(body)
}
