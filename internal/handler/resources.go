package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/church-manager/internal/model"
)

func (h *TenantHandler) ListVisitors(c echo.Context) error {
    page, size, ok := pageParams(c)
    if !ok {
        return badRequest(c, "invalid paging")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Visitors.List(ctx, churchID(c), model.PageFilter{Page: page, PageSize: size})
    if err != nil {
        return fail(c, err, "list visitors")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *TenantHandler) CreateVisitor(c echo.Context) error {
    var v model.Visitor
    if err := c.Bind(&v); err != nil {
        return badRequest(c, "invalid body")
    }
    v.Name = strings.TrimSpace(v.Name)
    if v.Name == "" {
        return badRequest(c, "name required")
    }
    if v.VisitedAt.IsZero() {
        v.VisitedAt = time.Now().UTC()
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Visitors.Create(ctx, churchID(c), v)
    if err != nil {
        return fail(c, err, "create visitor")
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *TenantHandler) DeleteVisitor(c echo.Context) error {
    return h.deleteBy(c, h.Visitors.Delete, "delete visitor")
}

func (h *TenantHandler) ListMinistries(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Ministries.List(ctx, churchID(c))
    if err != nil {
        return fail(c, err, "list ministries")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *TenantHandler) CreateMinistry(c echo.Context) error {
    var m model.Ministry
    if err := c.Bind(&m); err != nil {
        return badRequest(c, "invalid body")
    }
    m.Name = strings.TrimSpace(m.Name)
    if m.Name == "" {
        return badRequest(c, "name required")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Ministries.Create(ctx, churchID(c), m)
    if err != nil {
        return fail(c, err, "create ministry")
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *TenantHandler) DeleteMinistry(c echo.Context) error {
    return h.deleteBy(c, h.Ministries.Delete, "delete ministry")
}

// ListActivities accepts optional RFC 3339 from/to bounds.
func (h *TenantHandler) ListActivities(c echo.Context) error {
    var f model.ActivityFilter
    for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
        if v := c.QueryParam(name); v != "" {
            t, err := time.Parse(time.RFC3339, v)
            if err != nil {
                return badRequest(c, "invalid "+name)
            }
            *dst = t
        }
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Activities.List(ctx, churchID(c), f)
    if err != nil {
        return fail(c, err, "list activities")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *TenantHandler) CreateActivity(c echo.Context) error {
    var a model.Activity
    if err := c.Bind(&a); err != nil {
        return badRequest(c, "invalid body")
    }
    a.Title = strings.TrimSpace(a.Title)
    if a.Title == "" || a.StartsAt.IsZero() {
        return badRequest(c, "title and starts_at required")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Activities.Create(ctx, churchID(c), a)
    if err != nil {
        return fail(c, err, "create activity")
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *TenantHandler) DeleteActivity(c echo.Context) error {
    return h.deleteBy(c, h.Activities.Delete, "delete activity")
}

func validPrayerStatus(s string) bool {
    switch s {
    case model.PrayerPending, model.PrayerPraying, model.PrayerAnswered:
        return true
    }
    return false
}

func (h *TenantHandler) ListPrayers(c echo.Context) error {
    status := strings.ToUpper(c.QueryParam("status"))
    if status != "" && !validPrayerStatus(status) {
        return badRequest(c, "invalid status")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Prayers.List(ctx, churchID(c), model.PrayerFilter{Status: status})
    if err != nil {
        return fail(c, err, "list prayer requests")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *TenantHandler) CreatePrayer(c echo.Context) error {
    var p model.PrayerRequest
    if err := c.Bind(&p); err != nil {
        return badRequest(c, "invalid body")
    }
    p.Content = strings.TrimSpace(p.Content)
    if p.Content == "" {
        return badRequest(c, "content required")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Prayers.Create(ctx, churchID(c), p)
    if err != nil {
        return fail(c, err, "create prayer request")
    }
    return c.JSON(http.StatusCreated, out)
}

type prayerStatusReq struct {
    Status string `json:"status"`
}

func (h *TenantHandler) UpdatePrayerStatus(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "invalid id")
    }
    var req prayerStatusReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    if !validPrayerStatus(status) {
        return badRequest(c, "invalid status")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Prayers.UpdateStatus(ctx, churchID(c), id, status)
    if err != nil {
        return fail(c, err, "update prayer request")
    }
    return c.JSON(http.StatusOK, out)
}

func (h *TenantHandler) DeletePrayer(c echo.Context) error {
    return h.deleteBy(c, h.Prayers.Delete, "delete prayer request")
}

func (h *TenantHandler) deleteBy(c echo.Context, del func(ctx context.Context, churchID, id uint64) error, op string) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := del(ctx, churchID(c), id); err != nil {
        return fail(c, err, op)
    }
    return c.NoContent(http.StatusNoContent)
}
