package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/church-manager/internal/config"
    "github.com/iliyamo/church-manager/internal/middleware"
    "github.com/iliyamo/church-manager/internal/model"
)

const testSecret = "test-secret"

func testConfig() config.Config {
    return config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}
}

// as stands in for JWTAuth and ActiveChurch: it scopes the request to uid
// and, when active is non-nil, to that church.
func as(uid uint64, active *model.ActiveChurch) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            c.Set(middleware.CtxUserID, uid)
            if active != nil {
                c.Set(middleware.CtxChurchID, active.ChurchID)
                c.Set(middleware.CtxActiveChurch, *active)
            }
            return next(c)
        }
    }
}

func send(e *echo.Echo, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    for k, v := range hdr {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var v T
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
    return v
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }

func authServer() (*echo.Echo, *fakeUsers, *fakeTokens) {
    users, tokens := newFakeUsers(), newFakeTokens()
    h := NewAuthHandler(testConfig(), users, tokens)
    e := echo.New()
    e.POST("/register", h.Register)
    e.POST("/login", h.Login)
    e.POST("/refresh", h.Refresh)
    e.POST("/logout", h.Logout)
    return e, users, tokens
}

func TestAuth_RegisterLoginRefresh(t *testing.T) {
    e, _, tokens := authServer()

    rec := send(e, http.MethodPost, "/register", `{"email":" Ana@Example.com ","password":"longenough"}`, nil)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    reg := decode[model.AuthResponse](t, rec)
    assert.Equal(t, "ana@example.com", reg.User.Email)
    assert.NotEmpty(t, reg.Access.Token)
    assert.NotEmpty(t, reg.Refresh.Token)

    rec = send(e, http.MethodPost, "/register", `{"email":"ana@example.com","password":"longenough"}`, nil)
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = send(e, http.MethodPost, "/login", `{"email":"ana@example.com","password":"wrong-password"}`, nil)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = send(e, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"longenough"}`, nil)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = send(e, http.MethodPost, "/login", `{"email":"ana@example.com","password":"longenough"}`, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    login := decode[model.AuthResponse](t, rec)
    assert.Equal(t, reg.User.ID, login.User.ID)
    assert.Equal(t, 2, tokens.active(reg.User.ID))

    // Refresh rotates: the old refresh token stops working.
    body := `{"refresh_token":"` + login.Refresh.Token + `"}`
    rec = send(e, http.MethodPost, "/refresh", body, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    rotated := decode[model.AuthResponse](t, rec)
    assert.NotEqual(t, login.Refresh.Token, rotated.Refresh.Token)

    rec = send(e, http.MethodPost, "/refresh", body, nil)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterValidation(t *testing.T) {
    e, _, _ := authServer()
    for name, body := range map[string]string{
        "missing email": `{"password":"longenough"}`,
        "short":         `{"email":"a@b.c","password":"short"}`,
        "malformed":     `{"email":`,
    } {
        t.Run(name, func(t *testing.T) {
            rec := send(e, http.MethodPost, "/register", body, nil)
            assert.Equal(t, http.StatusBadRequest, rec.Code)
        })
    }
}

func TestAuth_Logout(t *testing.T) {
    e, _, tokens := authServer()
    rec := send(e, http.MethodPost, "/register", `{"email":"ana@example.com","password":"longenough"}`, nil)
    require.Equal(t, http.StatusCreated, rec.Code)
    first := decode[model.AuthResponse](t, rec)
    rec = send(e, http.MethodPost, "/login", `{"email":"ana@example.com","password":"longenough"}`, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    uid := first.User.ID
    require.Equal(t, 2, tokens.active(uid))

    rec = send(e, http.MethodPost, "/logout", `{"refresh_token":"`+first.Refresh.Token+`"}`, nil)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, 1, tokens.active(uid))

    rec = send(e, http.MethodPost, "/logout", `{"refresh_token":"`+first.Refresh.Token+`"}`, nil)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = send(e, http.MethodPost, "/logout", "", map[string]string{"Authorization": "Bearer " + first.Access.Token})
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Zero(t, tokens.active(uid))

    rec = send(e, http.MethodPost, "/logout", "", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func churchServer(uid uint64, active *model.ActiveChurch) (*echo.Echo, *fakeChurches, *recordingPurger, *recordingPublisher) {
    churches := newFakeChurches()
    users := newFakeUsers()
    purger, pub := &recordingPurger{}, &recordingPublisher{}
    h := NewChurchHandler(churches, users, purger, pub)
    e := echo.New()
    g := e.Group("", as(uid, active))
    g.GET("/churches/mine", h.Mine)
    g.GET("/churches/active", h.Active)
    g.POST("/churches/active", h.SetActive)
    g.POST("/churches", h.Create)
    g.GET("/branches", h.Branches)
    g.POST("/branches", h.CreateBranch)
    return e, churches, purger, pub
}

func TestChurch_SetActive(t *testing.T) {
    e, churches, purger, pub := churchServer(3, nil)
    churches.add(3, 9, "Sede", model.RoleAdmin)
    churches.add(3, 12, "Filial", model.RoleLeader)
    churches.active[3] = 9

    rec := send(e, http.MethodPost, "/churches/active", `{"church_id":12}`, nil)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
    resp := decode[model.SetActiveChurchResponse](t, rec)
    assert.Equal(t, "active church updated", resp.Message)
    assert.Equal(t, uint64(12), resp.ActiveChurch.ChurchID)
    assert.Equal(t, model.RoleLeader, resp.ActiveChurch.Role)
    assert.False(t, resp.ActiveChurch.Can("members:write"))

    assert.Equal(t, []uint64{3}, purger.users)
    require.Len(t, pub.events, 1)
    assert.Equal(t, uint64(3), pub.events[0].UserID)
    assert.Equal(t, uint64(12), pub.events[0].ChurchID)
    assert.Equal(t, uint64(9), pub.events[0].PreviousChurchID)
    assert.False(t, pub.events[0].SwitchedAt.IsZero())
}

func TestChurch_SetActiveRejected(t *testing.T) {
    e, churches, purger, pub := churchServer(3, nil)
    churches.add(4, 50, "Other", model.RoleAdmin)

    rec := send(e, http.MethodPost, "/churches/active", `{"church_id":50}`, nil)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    rec = send(e, http.MethodPost, "/churches/active", `{}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    assert.Empty(t, purger.users)
    assert.Empty(t, pub.events)
}

func TestChurch_ActiveAndMine(t *testing.T) {
    e, churches, _, _ := churchServer(3, nil)

    rec := send(e, http.MethodGet, "/churches/active", "", nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

    churches.add(3, 9, "Sede", model.RoleAdmin)
    churches.add(3, 12, "Filial", model.RoleLeader)
    churches.active[3] = 9

    rec = send(e, http.MethodGet, "/churches/active", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    active := decode[model.ActiveChurch](t, rec)
    assert.Equal(t, uint64(9), active.ChurchID)
    assert.True(t, active.Can("branches:write"))

    rec = send(e, http.MethodGet, "/churches/mine", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
    mine := decode[struct {
        Items []model.Membership `json:"items"`
    }](t, rec)
    require.Len(t, mine.Items, 2)
    assert.Equal(t, "Filial", mine.Items[0].ChurchName)
}

func TestChurch_CreateAndBranches(t *testing.T) {
    active := &model.ActiveChurch{ChurchID: 9, Role: model.RoleAdmin, Permissions: model.PermissionsFor(model.RoleAdmin)}
    e, churches, _, _ := churchServer(3, active)
    churches.add(3, 9, "Sede", model.RoleAdmin)

    rec := send(e, http.MethodPost, "/churches", `{"name":"  "}`, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = send(e, http.MethodPost, "/churches", `{"name":"Nova","state":"sp"}`, nil)
    require.Equal(t, http.StatusCreated, rec.Code)
    root := decode[model.Church](t, rec)
    assert.Nil(t, root.ParentID)
    assert.Equal(t, "SP", root.State)

    rec = send(e, http.MethodPost, "/branches", `{"name":"Bairro"}`, nil)
    require.Equal(t, http.StatusCreated, rec.Code)
    branch := decode[model.Church](t, rec)
    require.NotNil(t, branch.ParentID)
    assert.Equal(t, uint64(9), *branch.ParentID)
    assert.Equal(t, model.RoleAdmin, churches.roles[3][branch.ID])

    rec = send(e, http.MethodGet, "/branches", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    list := decode[struct {
        Items []model.Church `json:"items"`
    }](t, rec)
    require.Len(t, list.Items, 1)
    assert.Equal(t, "Bairro", list.Items[0].Name)
}

func tenantServer(churchID uint64) (*echo.Echo, *fakeMembers, *fakePrayers) {
    members := newFakeMembers()
    prayers := &fakePrayers{rows: map[uint64]model.PrayerRequest{}}
    h := &TenantHandler{Members: members, Prayers: prayers}
    active := &model.ActiveChurch{ChurchID: churchID, Role: model.RoleAdmin, Permissions: model.PermissionsFor(model.RoleAdmin)}
    e := echo.New()
    g := e.Group("", as(1, active))
    g.GET("/members", h.ListMembers)
    g.GET("/members/:id", h.GetMember)
    g.POST("/members", h.CreateMember)
    g.PUT("/members/:id", h.UpdateMember)
    g.DELETE("/members/:id", h.DeleteMember)
    g.GET("/members/available-spouses", h.AvailableSpouses)
    g.GET("/prayer-requests", h.ListPrayers)
    g.POST("/prayer-requests", h.CreatePrayer)
    g.PATCH("/prayer-requests/:id", h.UpdatePrayerStatus)
    g.DELETE("/prayer-requests/:id", h.DeletePrayer)
    return e, members, prayers
}

func TestMembers_Validation(t *testing.T) {
    e, _, _ := tenantServer(9)
    cases := map[string]string{
        "name":           `{"name":""}`,
        "gender":         `{"name":"Ana","gender":"x"}`,
        "status":         `{"name":"Ana","status":"gone"}`,
        "marital_status": `{"name":"Ana","marital_status":"complicated"}`,
    }
    for name, body := range cases {
        t.Run(name, func(t *testing.T) {
            rec := send(e, http.MethodPost, "/members", body, nil)
            assert.Equal(t, http.StatusBadRequest, rec.Code)
        })
    }

    rec := send(e, http.MethodGet, "/members?status=gone", "", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    rec = send(e, http.MethodGet, "/members?page=abc", "", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    rec = send(e, http.MethodGet, "/members/available-spouses?gender=x", "", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMembers_PageBounds(t *testing.T) {
    e, _, _ := tenantServer(9)

    rec := send(e, http.MethodGet, "/members?page=4611686018427387904&page_size=20", "", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
    rec = send(e, http.MethodGet, "/members?page="+strconv.Itoa(model.MaxPage+1), "", nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = send(e, http.MethodGet, "/members?page="+strconv.Itoa(model.MaxPage)+"&page_size=500", "", nil)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    page := decode[model.MembersPage](t, rec)
    assert.Equal(t, model.MaxPage, page.Page)
    assert.Equal(t, model.MaxPageSize, page.PageSize)
}

func TestMembers_ScopedToChurch(t *testing.T) {
    e, members, _ := tenantServer(9)
    other, _ := members.Create(context.Background(), 12, model.MemberInput{Name: "Elsewhere"})

    rec := send(e, http.MethodPost, "/members", `{"name":" Ana ","email":"ANA@x.com","gender":"f"}`, nil)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    ana := decode[model.Member](t, rec)
    assert.Equal(t, "Ana", ana.Name)
    assert.Equal(t, "ana@x.com", ana.Email)
    assert.Equal(t, "F", ana.Gender)
    assert.Equal(t, uint64(9), ana.ChurchID)

    rec = send(e, http.MethodGet, "/members", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    page := decode[model.MembersPage](t, rec)
    require.Len(t, page.Items, 1)
    assert.Equal(t, ana.ID, page.Items[0].ID)

    path := "/members/" + itoa(other.ID)
    assert.Equal(t, http.StatusNotFound, send(e, http.MethodGet, path, "", nil).Code)
    assert.Equal(t, http.StatusNotFound, send(e, http.MethodPut, path, `{"name":"Mine now"}`, nil).Code)
    assert.Equal(t, http.StatusNotFound, send(e, http.MethodDelete, path, "", nil).Code)
    assert.Equal(t, http.StatusBadRequest, send(e, http.MethodDelete, "/members/0", "", nil).Code)

    assert.Equal(t, http.StatusNoContent, send(e, http.MethodDelete, "/members/"+itoa(ana.ID), "", nil).Code)
}

func TestPrayers_Status(t *testing.T) {
    e, _, prayers := tenantServer(9)

    assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPost, "/prayer-requests", `{"content":" "}`, nil).Code)
    rec := send(e, http.MethodPost, "/prayer-requests", `{"content":"Healing"}`, nil)
    require.Equal(t, http.StatusCreated, rec.Code)
    p := decode[model.PrayerRequest](t, rec)
    assert.Equal(t, model.PrayerPending, p.Status)

    path := "/prayer-requests/" + itoa(p.ID)
    assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPatch, path, `{"status":"done"}`, nil).Code)
    rec = send(e, http.MethodPatch, path, `{"status":"answered"}`, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, model.PrayerAnswered, prayers.rows[p.ID].Status)

    rec = send(e, http.MethodGet, "/prayer-requests?status=PENDING", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    list := decode[struct {
        Items []model.PrayerRequest `json:"items"`
    }](t, rec)
    assert.Empty(t, list.Items)

    assert.Equal(t, http.StatusBadRequest, send(e, http.MethodGet, "/prayer-requests?status=nope", "", nil).Code)
    assert.Equal(t, http.StatusNotFound, send(e, http.MethodPatch, "/prayer-requests/99", `{"status":"PRAYING"}`, nil).Code)
    assert.Equal(t, http.StatusNoContent, send(e, http.MethodDelete, path, "", nil).Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth_Ready(t *testing.T) {
    ok := func(context.Context) error { return nil }
    down := func(context.Context) error { return errors.New("connection refused") }

    e := echo.New()
    h := &HealthHandler{DB: pingFunc(ok)}
    e.GET("/healthz", h.Health)
    e.GET("/readyz", h.Ready)

    assert.Equal(t, http.StatusOK, send(e, http.MethodGet, "/healthz", "", nil).Code)

    rec := send(e, http.MethodGet, "/readyz", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, map[string]string{"mysql": "ok"}, decode[map[string]string](t, rec))

    h.Redis = down
    rec = send(e, http.MethodGet, "/readyz", "", nil)
    require.Equal(t, http.StatusServiceUnavailable, rec.Code)
    body := decode[map[string]string](t, rec)
    assert.Equal(t, "ok", body["mysql"])
    assert.Equal(t, "connection refused", body["redis"])
}

