package serverutils

import (
	"errors"

	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps service errors to HTTP statuses so
// controllers can return errors straight from the service layer.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		switch {
		case errors.Is(err, service.ErrDocumentNotFound),
			errors.Is(err, service.ErrSessionNotFound),
			errors.Is(err, service.ErrQuestionSetNotFound),
			errors.Is(err, service.ErrQuestionNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, service.ErrUnknownDocuments):
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, service.ErrInvalidCredentials):
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailTaken):
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, service.ErrStreamUnavailable):
			return ctx.Status(fiber.StatusGone).JSON(ErrorResponse(err.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
