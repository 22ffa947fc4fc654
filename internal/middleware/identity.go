package middleware

// identity.go holds the context keys shared by the middleware chain and the
// handlers. JWTAuth stores the user id, ActiveChurch stores the church the
// request is scoped to.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/church-manager/internal/model"
)

// Context keys.
const (
    CtxUserID       = "user_id"       // uint64, set by JWTAuth
    CtxChurchID     = "church_id"     // uint64, set by ActiveChurch
    CtxActiveChurch = "active_church" // model.ActiveChurch, set by ActiveChurch
)

// UserID returns the authenticated user id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxUserID).(uint64)
    return id, ok && id != 0
}

// Church returns the active church the request is scoped to.
func Church(c echo.Context) (model.ActiveChurch, bool) {
    a, ok := c.Get(CtxActiveChurch).(model.ActiveChurch)
    return a, ok
}

// userKey renders the user id for cache and rate limit keys; "anon" when
// unauthenticated.
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}

// churchKey renders the active church id; "none" outside tenant routes.
func churchKey(c echo.Context) string {
    if id, ok := c.Get(CtxChurchID).(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "none"
}
