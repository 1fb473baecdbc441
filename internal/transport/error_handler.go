package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		requestID := requestIDFromCtx(c)

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.String("requestId", requestID),
			zap.Error(err),
		)

		payload := fiber.Map{
			"error": err.Error(),
		}
		if requestID != "" {
			payload["requestId"] = requestID
		}

		return c.Status(code).JSON(payload)
	}
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
