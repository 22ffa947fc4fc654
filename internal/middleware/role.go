package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequirePermission rejects the request with 403 unless the caller's role in
// the active church grants perm.  It must run after ActiveChurch, since roles
// are per church: the same user may write members in one church and only
// read them in another.
func RequirePermission(perm string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            active, ok := Church(c)
            if !ok || !active.Can(perm) {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
