package api

import (
	"context"
	"net/http"

	"github.com/iliyamo/church-manager/internal/model"
)

func (c *Client) ListMembers(ctx context.Context, churchID uint64, f model.MemberFilter) (model.MembersPage, error) {
	return one[model.MembersPage](ctx, c, call{method: http.MethodGet, path: "/v1/members", query: f.Values(), churchID: churchID})
}

func (c *Client) GetMember(ctx context.Context, churchID, id uint64) (model.Member, error) {
	return one[model.Member](ctx, c, call{method: http.MethodGet, path: idPath("/v1/members", id), churchID: churchID})
}

func (c *Client) CreateMember(ctx context.Context, churchID uint64, in model.MemberInput) (model.Member, error) {
	return one[model.Member](ctx, c, call{method: http.MethodPost, path: "/v1/members", body: in, churchID: churchID})
}

func (c *Client) UpdateMember(ctx context.Context, churchID, id uint64, in model.MemberInput) (model.Member, error) {
	return one[model.Member](ctx, c, call{method: http.MethodPut, path: idPath("/v1/members", id), body: in, churchID: churchID})
}

func (c *Client) DeleteMember(ctx context.Context, churchID, id uint64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/v1/members", id), churchID: churchID}, nil)
}

func (c *Client) MembersDashboard(ctx context.Context, churchID uint64) (model.MembersDashboard, error) {
	return one[model.MembersDashboard](ctx, c, call{method: http.MethodGet, path: "/v1/members/dashboard", churchID: churchID})
}

func (c *Client) AvailableLeaders(ctx context.Context, churchID uint64) ([]model.PersonOption, error) {
	return list[model.PersonOption](ctx, c, call{method: http.MethodGet, path: "/v1/members/available-leaders", churchID: churchID})
}

func (c *Client) AvailableSpouses(ctx context.Context, churchID uint64, f model.GenderFilter) ([]model.PersonOption, error) {
	return list[model.PersonOption](ctx, c, call{method: http.MethodGet, path: "/v1/members/available-spouses", query: f.Values(), churchID: churchID})
}

func (c *Client) ListVisitors(ctx context.Context, churchID uint64, f model.PageFilter) ([]model.Visitor, error) {
	return list[model.Visitor](ctx, c, call{method: http.MethodGet, path: "/v1/visitors", query: f.Values(), churchID: churchID})
}

func (c *Client) CreateVisitor(ctx context.Context, churchID uint64, v model.Visitor) (model.Visitor, error) {
	return one[model.Visitor](ctx, c, call{method: http.MethodPost, path: "/v1/visitors", body: v, churchID: churchID})
}

func (c *Client) DeleteVisitor(ctx context.Context, churchID, id uint64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/v1/visitors", id), churchID: churchID}, nil)
}

func (c *Client) ListMinistries(ctx context.Context, churchID uint64) ([]model.Ministry, error) {
	return list[model.Ministry](ctx, c, call{method: http.MethodGet, path: "/v1/ministries", churchID: churchID})
}

func (c *Client) CreateMinistry(ctx context.Context, churchID uint64, m model.Ministry) (model.Ministry, error) {
	return one[model.Ministry](ctx, c, call{method: http.MethodPost, path: "/v1/ministries", body: m, churchID: churchID})
}

func (c *Client) DeleteMinistry(ctx context.Context, churchID, id uint64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/v1/ministries", id), churchID: churchID}, nil)
}

func (c *Client) ListActivities(ctx context.Context, churchID uint64, f model.ActivityFilter) ([]model.Activity, error) {
	return list[model.Activity](ctx, c, call{method: http.MethodGet, path: "/v1/activities", query: f.Values(), churchID: churchID})
}

func (c *Client) CreateActivity(ctx context.Context, churchID uint64, a model.Activity) (model.Activity, error) {
	return one[model.Activity](ctx, c, call{method: http.MethodPost, path: "/v1/activities", body: a, churchID: churchID})
}

func (c *Client) DeleteActivity(ctx context.Context, churchID, id uint64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/v1/activities", id), churchID: churchID}, nil)
}

func (c *Client) ListPrayerRequests(ctx context.Context, churchID uint64, f model.PrayerFilter) ([]model.PrayerRequest, error) {
	return list[model.PrayerRequest](ctx, c, call{method: http.MethodGet, path: "/v1/prayer-requests", query: f.Values(), churchID: churchID})
}

func (c *Client) CreatePrayerRequest(ctx context.Context, churchID uint64, p model.PrayerRequest) (model.PrayerRequest, error) {
	return one[model.PrayerRequest](ctx, c, call{method: http.MethodPost, path: "/v1/prayer-requests", body: p, churchID: churchID})
}

type prayerStatusReq struct {
	Status string `json:"status"`
}

func (c *Client) UpdatePrayerStatus(ctx context.Context, churchID, id uint64, status string) (model.PrayerRequest, error) {
	return one[model.PrayerRequest](ctx, c, call{
		method:   http.MethodPatch,
		path:     idPath("/v1/prayer-requests", id),
		body:     prayerStatusReq{Status: status},
		churchID: churchID,
	})
}

func (c *Client) DeletePrayerRequest(ctx context.Context, churchID, id uint64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/v1/prayer-requests", id), churchID: churchID}, nil)
}
