package serverutils

import (
	"errors"

	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/pkg/annotation"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch annotation.KindOf(err) {
	case annotation.KindValidation, annotation.KindPrecondition:
		return fiber.StatusBadRequest
	case annotation.KindRender:
		switch annotation.CodeOf(err) {
		case annotation.CodeDocumentNotFound, annotation.CodePageNotFound:
			return fiber.StatusNotFound
		}
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as the JSON error
// envelope. Internal failures are logged with full detail and answered with
// a generic message.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := StatusFor(err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(status).JSON(ErrorResponse(CodeForStatus(status), fe.Message))
		}

		var ae *annotation.Error
		if errors.As(err, &ae) && ae.Kind != annotation.KindInternal {
			if status >= fiber.StatusInternalServerError {
				log.Error("HTTP", ae.Message, map[string]interface{}{
					"path":  ctx.Path(),
					"kind":  ae.Kind.String(),
					"error": err.Error(),
				})
			}
			return ctx.Status(status).JSON(ErrorResponse(ae.Code, ae.Message))
		}

		log.Error("HTTP", "Unexpected error", map[string]interface{}{
			"path":   ctx.Path(),
			"method": ctx.Method(),
			"error":  err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(annotation.CodeInternal, "An internal error occurred"))
	}
}

func CodeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NotFound"
	case fiber.StatusMethodNotAllowed:
		return "MethodNotAllowed"
	case fiber.StatusRequestEntityTooLarge:
		return "BodyTooLarge"
	case fiber.StatusBadRequest:
		return annotation.CodeInvalidBody
	default:
		return annotation.CodeInternal
	}
}
