package middleware

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/church-manager/internal/model"
    "github.com/iliyamo/church-manager/internal/repository"
)

// HeaderChurchID is sent by clients on tenant scoped requests to name the
// church they believe is active.
const HeaderChurchID = "X-Church-ID"

// ActiveChurchLoader resolves a user's active church.
type ActiveChurchLoader interface {
    Active(ctx context.Context, userID uint64) (model.ActiveChurch, error)
}

// ActiveChurch scopes a request to the user's active church.  It must run
// after JWTAuth.  Responses:
//   412 no active church       - the user has not selected one
//   409 active church mismatch - X-Church-ID names another church; the
//                                real active church is echoed in the
//                                X-Church-ID response header
//   400 invalid X-Church-ID
func ActiveChurch(loader ActiveChurchLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, ok := UserID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            active, err := loader.Active(c.Request().Context(), uid)
            if errors.Is(err, repository.ErrNotFound) {
                return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": "no active church"})
            }
            if err != nil {
                zerolog.Ctx(c.Request().Context()).Error().Err(err).Uint64("user_id", uid).Msg("load active church")
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load active church failed"})
            }

            if h := strings.TrimSpace(c.Request().Header.Get(HeaderChurchID)); h != "" {
                claimed, err := strconv.ParseUint(h, 10, 64)
                if err != nil {
                    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + HeaderChurchID})
                }
                if claimed != active.ChurchID {
                    c.Response().Header().Set(HeaderChurchID, strconv.FormatUint(active.ChurchID, 10))
                    return c.JSON(http.StatusConflict, echo.Map{"error": "active church mismatch"})
                }
            }

            c.Set(CtxChurchID, active.ChurchID)
            c.Set(CtxActiveChurch, active)
            return next(c)
        }
    }
}
