package handler // declare the package name; contains HTTP handlers

import (
    "context"  // context bounds the dependency pings
    "net/http" // net/http provides status codes and response helpers
    "time"     // ping timeout

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// RedisPinger checks the optional Redis dependency.
type RedisPinger func(ctx context.Context) error

// HealthHandler reports liveness and readiness.
type HealthHandler struct {
    DB    Pinger
    Redis RedisPinger // nil when Redis is not configured
}

// Health is the liveness probe used by load balancers.  It returns a plain
// text "ok" with 200 as long as the process serves HTTP.
func (h *HealthHandler) Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready pings MySQL and, when configured, Redis.  Any failure yields 503
// with the failing dependency named in the body.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    checks := echo.Map{"mysql": "ok"}
    status := http.StatusOK
    if err := h.DB.PingContext(ctx); err != nil {
        checks["mysql"] = err.Error()
        status = http.StatusServiceUnavailable
    }
    if h.Redis != nil {
        checks["redis"] = "ok"
        if err := h.Redis(ctx); err != nil {
            checks["redis"] = err.Error()
            status = http.StatusServiceUnavailable
        }
    }
    return c.JSON(status, checks)
}
