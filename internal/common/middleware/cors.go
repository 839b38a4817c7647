package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS открывает POST-маршруты рендера для браузерных клиентов.
// origins: список через запятую; пусто или "*" разрешает всех.
func CORS(origins string) fiber.Handler {
	allow := []string{"*"}
	if o := strings.TrimSpace(origins); o != "" && o != "*" {
		allow = allow[:0]
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				allow = append(allow, part)
			}
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: allow,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	})
}
