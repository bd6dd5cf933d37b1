package middleware

import (
	"io"
	"os"

	"room-studio/internal/common/logging"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger возвращает access-лог запросов. w == nil - stdout.
func Logger(w io.Writer) fiber.Handler {
	if w == nil {
		w = os.Stdout
	}
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | req=${respHeader:X-Request-ID} | Content-Type: ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Stream:     w,
	})
}

// RequestID выдаёт каждому запросу X-Request-ID.
func RequestID() fiber.Handler {
	return requestid.New()
}

// RequestLogger кладёт в context запроса логгер с request_id, чтобы
// сервисный слой писал логи с привязкой к запросу.
func RequestLogger(base *log.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		l := base.With("request_id", requestid.FromContext(c))
		c.SetContext(logging.WithLogger(c.Context(), l))
		return c.Next()
	}
}
