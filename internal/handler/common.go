package handler // handler defines http handlers

import (
    "context"  // context bounds repository calls
    "errors"   // errors.Is maps repository sentinels
    "net/http" // net/http provides status codes
    "strconv"  // strconv parses path ids
    "time"     // time sets the repository timeout

    "github.com/labstack/echo/v4" // echo defines request context types
    "github.com/rs/zerolog"       // zerolog logs unexpected failures

    "github.com/iliyamo/church-manager/internal/middleware" // context keys
    "github.com/iliyamo/church-manager/internal/model"      // domain types
    "github.com/iliyamo/church-manager/internal/queue"      // church.switched payload
    "github.com/iliyamo/church-manager/internal/repository" // repository sentinels
)

// Stores the handlers depend on.  The repository package provides the MySQL
// implementations; tests provide in-memory ones.

type UserStore interface {
    Create(ctx context.Context, email, password string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ChurchStore interface {
    ListForUser(ctx context.Context, userID uint64) ([]model.Membership, error)
    Active(ctx context.Context, userID uint64) (model.ActiveChurch, error)
    SetActive(ctx context.Context, userID, churchID uint64) (model.ActiveChurch, uint64, error)
    Create(ctx context.Context, userID uint64, parentID *uint64, in model.BranchInput) (model.Church, error)
    Branches(ctx context.Context, churchID uint64) ([]model.Church, error)
}

type MemberStore interface {
    List(ctx context.Context, churchID uint64, f model.MemberFilter) (model.MembersPage, error)
    Get(ctx context.Context, churchID, id uint64) (model.Member, error)
    Create(ctx context.Context, churchID uint64, in model.MemberInput) (model.Member, error)
    Update(ctx context.Context, churchID, id uint64, in model.MemberInput) (model.Member, error)
    Delete(ctx context.Context, churchID, id uint64) error
    Dashboard(ctx context.Context, churchID uint64) (model.MembersDashboard, error)
    AvailableLeaders(ctx context.Context, churchID uint64) ([]model.PersonOption, error)
    AvailableSpouses(ctx context.Context, churchID uint64, f model.GenderFilter) ([]model.PersonOption, error)
}

type VisitorStore interface {
    List(ctx context.Context, churchID uint64, f model.PageFilter) ([]model.Visitor, error)
    Create(ctx context.Context, churchID uint64, v model.Visitor) (model.Visitor, error)
    Delete(ctx context.Context, churchID, id uint64) error
}

type MinistryStore interface {
    List(ctx context.Context, churchID uint64) ([]model.Ministry, error)
    Create(ctx context.Context, churchID uint64, m model.Ministry) (model.Ministry, error)
    Delete(ctx context.Context, churchID, id uint64) error
}

type ActivityStore interface {
    List(ctx context.Context, churchID uint64, f model.ActivityFilter) ([]model.Activity, error)
    Create(ctx context.Context, churchID uint64, a model.Activity) (model.Activity, error)
    Delete(ctx context.Context, churchID, id uint64) error
}

type PrayerStore interface {
    List(ctx context.Context, churchID uint64, f model.PrayerFilter) ([]model.PrayerRequest, error)
    Create(ctx context.Context, churchID uint64, p model.PrayerRequest) (model.PrayerRequest, error)
    UpdateStatus(ctx context.Context, churchID, id uint64, status string) (model.PrayerRequest, error)
    Delete(ctx context.Context, churchID, id uint64) error
}

type DashboardStore interface {
    Main(ctx context.Context, churchID uint64) (model.MainDashboard, error)
}

// UserCachePurger drops a user's server-side cached responses.
type UserCachePurger interface {
    PurgeUser(ctx context.Context, userID uint64) (int, error)
}

// SwitchPublisher announces church switches to other instances.
type SwitchPublisher interface {
    PublishChurchSwitched(ctx context.Context, ev queue.ChurchSwitchedEvent) error
}

const dbTimeout = 5 * time.Second

// dbCtx bounds a repository call by the request context and dbTimeout.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// churchID returns the church the request is scoped to.  Tenant routes run
// behind middleware.ActiveChurch, which always sets it.
func churchID(c echo.Context) uint64 {
    id, _ := c.Get(middleware.CtxChurchID).(uint64)
    return id
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id != 0
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// fail translates a repository error into the JSON error response.  Errors
// without a sentinel are logged and reported as 500 with op as the message.
func fail(c echo.Context, err error, op string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrNotMember), errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
    }
    zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("op", op).Msg("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": op + " failed"})
}

// noStore marks identity responses as uncacheable for the response cache
// and any HTTP cache in between.
func noStore(c echo.Context) {
    c.Response().Header().Set("Cache-Control", "no-store")
}

// pageParams reads page and page_size. Pages past model.MaxPage are
// rejected; smaller values are normalized by the filters.
func pageParams(c echo.Context) (page, size int, ok bool) {
    page, ok1 := intParam(c, "page")
    size, ok2 := intParam(c, "page_size")
    return page, size, ok1 && ok2 && page <= model.MaxPage
}

// intParam reads an optional integer query parameter.
func intParam(c echo.Context, name string) (int, bool) {
    v := c.QueryParam(name)
    if v == "" {
        return 0, true
    }
    n, err := strconv.Atoi(v)
    return n, err == nil
}
