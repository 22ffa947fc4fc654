package logger

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Setup builds the process logger. Dev mode switches to a console writer at
// debug level.
func Setup(dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// RequestLogger logs one line per request and attaches a request scoped
// logger to the request context, retrievable with zerolog.Ctx.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			req := c.Request()

			id := req.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, id)

			l := logger.With().Str("request_id", id).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			ev := l.Info()
			if status := c.Response().Status; status >= 500 {
				ev = l.Error().Err(err)
			}
			ev = ev.Str("method", req.Method).
				Str("path", c.Path()).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(started))
			if uid, ok := c.Get("user_id").(uint64); ok {
				ev = ev.Uint64("user_id", uid)
			}
			if cid, ok := c.Get("church_id").(uint64); ok {
				ev = ev.Uint64("church_id", cid)
			}
			ev.Msg("http request")
			return nil
		}
	}
}
