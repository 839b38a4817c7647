package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger пишет строку access-лога на запрос, с тегом [HTTP] как у остальных логов.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[HTTP] ${time} ${status} ${latency} ${method} ${path} ${bytesSent}b | ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
