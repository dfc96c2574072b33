package serverutils

import (
	"errors"

	"screening-bot-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors returned by handlers into JSON error bodies.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return writeError(ctx, err)
	}
}

// FiberErrorHandler is installed as fiber.Config.ErrorHandler for errors raised
// outside the middleware chain (routing, body limits).
func FiberErrorHandler(ctx *fiber.Ctx, err error) error {
	return writeError(ctx, err)
}

func writeError(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	status := apperror.HTTPStatus(err)
	body := ErrorResponse(status, err.Error())
	body.ErrorType = apperror.CodeOf(err)

	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal && appErr.Kind != apperror.KindUpstream {
		body.Message = appErr.Message
	}
	return ctx.Status(status).JSON(body)
}
