package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/church-manager/internal/handler"    // tenant handlers
	"github.com/iliyamo/church-manager/internal/middleware" // JWT, church scope and permission middlewares
)

// Permissions required by the write routes; see model.PermissionsFor.
const (
	permMembers    = "members:write"
	permVisitors   = "visitors:write"
	permMinistries = "ministries:write"
	permActivities = "activities:write"
	permPrayers    = "prayers:write"
	permBranches   = "branches:write"
	permDashboard  = "dashboard:read"
)

// TenantDeps are the collaborators of the church scoped routes.
type TenantDeps struct {
	JWTSecret string
	Loader    middleware.ActiveChurchLoader
	Limit     echo.MiddlewareFunc
	Cache     *middleware.TenantCache
	Churches  *handler.ChurchHandler
	Resources *handler.TenantHandler
}

// RegisterTenant registers the routes scoped to the caller's active church.
// Every request resolves the active church per request; the rate limiter and
// the response cache run after it so their keys carry the church.
func RegisterTenant(e *echo.Echo, d TenantDeps) {
	g := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.ActiveChurch(d.Loader),
		d.Limit,
		d.Cache.Middleware(),
	)
	r, ch := d.Resources, d.Churches
	need := middleware.RequirePermission

	g.GET("/me", ch.Profile)
	g.GET("/dashboard", r.MainDashboard, need(permDashboard))

	// ---- Members ----
	g.GET("/members", r.ListMembers)
	g.POST("/members", r.CreateMember, need(permMembers))
	g.GET("/members/dashboard", r.MembersDashboard, need(permDashboard))
	g.GET("/members/available-leaders", r.AvailableLeaders)
	g.GET("/members/available-spouses", r.AvailableSpouses)
	g.GET("/members/:id", r.GetMember)
	g.PUT("/members/:id", r.UpdateMember, need(permMembers))
	g.DELETE("/members/:id", r.DeleteMember, need(permMembers))

	// ---- Visitors ----
	g.GET("/visitors", r.ListVisitors)
	g.POST("/visitors", r.CreateVisitor, need(permVisitors))
	g.DELETE("/visitors/:id", r.DeleteVisitor, need(permVisitors))

	// ---- Ministries ----
	g.GET("/ministries", r.ListMinistries)
	g.POST("/ministries", r.CreateMinistry, need(permMinistries))
	g.DELETE("/ministries/:id", r.DeleteMinistry, need(permMinistries))

	// ---- Activities ----
	g.GET("/activities", r.ListActivities)
	g.POST("/activities", r.CreateActivity, need(permActivities))
	g.DELETE("/activities/:id", r.DeleteActivity, need(permActivities))

	// ---- Prayer requests ----
	g.GET("/prayer-requests", r.ListPrayers)
	g.POST("/prayer-requests", r.CreatePrayer, need(permPrayers))
	g.PATCH("/prayer-requests/:id", r.UpdatePrayerStatus, need(permPrayers))
	g.DELETE("/prayer-requests/:id", r.DeletePrayer, need(permPrayers))

	// ---- Branches ----
	g.GET("/branches", ch.Branches)
	g.POST("/branches", ch.CreateBranch, need(permBranches))
}
