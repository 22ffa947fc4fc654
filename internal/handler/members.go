package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/church-manager/internal/model"
)

// TenantHandler serves the resources of the active church.  Every handler
// reads the church from the request context, never from the request itself.
type TenantHandler struct {
    Members    MemberStore
    Visitors   VisitorStore
    Ministries MinistryStore
    Activities ActivityStore
    Prayers    PrayerStore
    Dashboard  DashboardStore
}

func (h *TenantHandler) ListMembers(c echo.Context) error {
    page, size, ok := pageParams(c)
    if !ok {
        return badRequest(c, "invalid paging")
    }
    status := strings.ToUpper(c.QueryParam("status"))
    if status != "" && status != model.MemberActive && status != model.MemberInactive {
        return badRequest(c, "invalid status")
    }
    f := model.MemberFilter{
        Query:       c.QueryParam("q"),
        Status:      status,
        LeadersOnly: c.QueryParam("leaders") == "true",
        Page:        page,
        PageSize:    size,
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Members.List(ctx, churchID(c), f)
    if err != nil {
        return fail(c, err, "list members")
    }
    return c.JSON(http.StatusOK, out)
}

func (h *TenantHandler) GetMember(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    m, err := h.Members.Get(ctx, churchID(c), id)
    if err != nil {
        return fail(c, err, "get member")
    }
    return c.JSON(http.StatusOK, m)
}

// validMember normalizes in and returns a message for the first invalid field.
func validMember(in *model.MemberInput) string {
    in.Name = strings.TrimSpace(in.Name)
    in.Email = strings.ToLower(strings.TrimSpace(in.Email))
    in.Gender = strings.ToUpper(strings.TrimSpace(in.Gender))
    in.MaritalStatus = strings.ToUpper(strings.TrimSpace(in.MaritalStatus))
    in.Status = strings.ToUpper(strings.TrimSpace(in.Status))
    switch {
    case in.Name == "":
        return "name required"
    case in.Gender != "" && in.Gender != "M" && in.Gender != "F":
        return "gender must be M or F"
    case in.Status != "" && in.Status != model.MemberActive && in.Status != model.MemberInactive:
        return "invalid status"
    }
    switch in.MaritalStatus {
    case "", "SINGLE", "MARRIED", "WIDOWED", "DIVORCED":
    default:
        return "invalid marital_status"
    }
    return ""
}

func (h *TenantHandler) CreateMember(c echo.Context) error {
    var in model.MemberInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := validMember(&in); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    m, err := h.Members.Create(ctx, churchID(c), in)
    if err != nil {
        return fail(c, err, "create member")
    }
    return c.JSON(http.StatusCreated, m)
}

func (h *TenantHandler) UpdateMember(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "invalid id")
    }
    var in model.MemberInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := validMember(&in); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    m, err := h.Members.Update(ctx, churchID(c), id, in)
    if err != nil {
        return fail(c, err, "update member")
    }
    return c.JSON(http.StatusOK, m)
}

func (h *TenantHandler) DeleteMember(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Members.Delete(ctx, churchID(c), id); err != nil {
        return fail(c, err, "delete member")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *TenantHandler) MembersDashboard(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    d, err := h.Members.Dashboard(ctx, churchID(c))
    if err != nil {
        return fail(c, err, "members dashboard")
    }
    return c.JSON(http.StatusOK, d)
}

func (h *TenantHandler) AvailableLeaders(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Members.AvailableLeaders(ctx, churchID(c))
    if err != nil {
        return fail(c, err, "available leaders")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *TenantHandler) AvailableSpouses(c echo.Context) error {
    g := strings.ToUpper(c.QueryParam("gender"))
    if g != "" && g != "M" && g != "F" {
        return badRequest(c, "gender must be M or F")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Members.AvailableSpouses(ctx, churchID(c), model.GenderFilter{Gender: g})
    if err != nil {
        return fail(c, err, "available spouses")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// MainDashboard aggregates counts across the active church.
func (h *TenantHandler) MainDashboard(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    d, err := h.Dashboard.Main(ctx, churchID(c))
    if err != nil {
        return fail(c, err, "dashboard")
    }
    return c.JSON(http.StatusOK, d)
}
