package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/church-manager/internal/middleware"
    "github.com/iliyamo/church-manager/internal/model"
    "github.com/iliyamo/church-manager/internal/queue"
    "github.com/iliyamo/church-manager/internal/repository"
)

// ChurchHandler serves the session identity endpoints: memberships, the
// active church and the switch between churches.  Cache and Events are
// optional.
type ChurchHandler struct {
    Churches ChurchStore
    Users    UserStore
    Cache    UserCachePurger
    Events   SwitchPublisher
}

func NewChurchHandler(churches ChurchStore, users UserStore, cache UserCachePurger, events SwitchPublisher) *ChurchHandler {
    return &ChurchHandler{Churches: churches, Users: users, Cache: cache, Events: events}
}

// Mine lists the caller's memberships.
func (h *ChurchHandler) Mine(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Churches.ListForUser(ctx, uid)
    if err != nil {
        return fail(c, err, "list churches")
    }
    noStore(c)
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Active returns the caller's active church, 404 when none is selected.
func (h *ChurchHandler) Active(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    ctx, cancel := dbCtx(c)
    defer cancel()
    noStore(c)
    active, err := h.Churches.Active(ctx, uid)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active church"})
    }
    if err != nil {
        return fail(c, err, "load active church")
    }
    return c.JSON(http.StatusOK, active)
}

// SetActive switches the caller's active church.  The switch commits before
// the caller's cached responses are purged, so a response cached for the old
// church cannot outlive it on this instance; the church.switched event does
// the same on every other instance.
func (h *ChurchHandler) SetActive(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var req model.SetActiveChurchRequest
    if err := c.Bind(&req); err != nil || req.ChurchID == 0 {
        return badRequest(c, "church_id required")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    active, previous, err := h.Churches.SetActive(ctx, uid, req.ChurchID)
    if err != nil {
        return fail(c, err, "set active church")
    }

    log := zerolog.Ctx(c.Request().Context())
    if h.Cache != nil {
        if _, err := h.Cache.PurgeUser(ctx, uid); err != nil {
            log.Warn().Err(err).Uint64("user_id", uid).Msg("purge user cache failed")
        }
    }
    if h.Events != nil {
        ev := queue.ChurchSwitchedEvent{UserID: uid, ChurchID: active.ChurchID, PreviousChurchID: previous, SwitchedAt: time.Now().UTC()}
        if err := h.Events.PublishChurchSwitched(ctx, ev); err != nil {
            log.Warn().Err(err).Uint64("user_id", uid).Msg("publish church.switched failed")
        }
    }
    log.Info().Uint64("user_id", uid).Uint64("church_id", active.ChurchID).Uint64("previous_church_id", previous).Msg("active church switched")

    noStore(c)
    return c.JSON(http.StatusOK, model.SetActiveChurchResponse{Message: "active church updated", ActiveChurch: active})
}

func validChurch(in *model.BranchInput) string {
    in.Name = strings.TrimSpace(in.Name)
    in.City = strings.TrimSpace(in.City)
    in.State = strings.ToUpper(strings.TrimSpace(in.State))
    in.CEP = strings.TrimSpace(in.CEP)
    if in.Name == "" {
        return "name required"
    }
    return ""
}

// Create founds a root church with the caller as ADMIN.  It does not change
// the active church.
func (h *ChurchHandler) Create(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var in model.BranchInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := validChurch(&in); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    church, err := h.Churches.Create(ctx, uid, nil, in)
    if err != nil {
        return fail(c, err, "create church")
    }
    return c.JSON(http.StatusCreated, church)
}

// Profile returns the caller and the church the request is scoped to.
func (h *ChurchHandler) Profile(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return fail(c, err, "load user")
    }
    p := model.Profile{UserID: u.ID, Email: u.Email}
    if a, ok := middleware.Church(c); ok {
        p.ActiveChurch = &a
    }
    return c.JSON(http.StatusOK, p)
}

// Branches lists the direct branches of the active church.
func (h *ChurchHandler) Branches(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Churches.Branches(ctx, churchID(c))
    if err != nil {
        return fail(c, err, "list branches")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// CreateBranch adds a branch under the active church; the caller becomes
// its ADMIN.
func (h *ChurchHandler) CreateBranch(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    var in model.BranchInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := validChurch(&in); msg != "" {
        return badRequest(c, msg)
    }
    parent := churchID(c)
    ctx, cancel := dbCtx(c)
    defer cancel()
    church, err := h.Churches.Create(ctx, uid, &parent, in)
    if err != nil {
        return fail(c, err, "create branch")
    }
    return c.JSON(http.StatusCreated, church)
}
