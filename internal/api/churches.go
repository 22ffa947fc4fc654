package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/church-manager/internal/model"
)

// UserChurches lists the churches the user belongs to.
func (c *Client) UserChurches(ctx context.Context) ([]model.Membership, error) {
	return list[model.Membership](ctx, c, call{method: http.MethodGet, path: "/v1/churches/mine"})
}

// ActiveChurch returns the session's active church, or nil when the server
// says the user has not selected one yet. Any other 404 is an error.
func (c *Client) ActiveChurch(ctx context.Context) (*model.ActiveChurch, error) {
	active, err := one[model.ActiveChurch](ctx, c, call{method: http.MethodGet, path: "/v1/churches/active"})
	if errors.Is(err, ErrNoActiveChurch) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &active, nil
}

// SetActiveChurch makes churchID the session's active church.
func (c *Client) SetActiveChurch(ctx context.Context, churchID uint64) (model.SetActiveChurchResponse, error) {
	return one[model.SetActiveChurchResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/v1/churches/active",
		body:   model.SetActiveChurchRequest{ChurchID: churchID},
	})
}

func (c *Client) Profile(ctx context.Context, churchID uint64) (model.Profile, error) {
	return one[model.Profile](ctx, c, call{method: http.MethodGet, path: "/v1/me", churchID: churchID})
}

func (c *Client) MainDashboard(ctx context.Context, churchID uint64) (model.MainDashboard, error) {
	return one[model.MainDashboard](ctx, c, call{method: http.MethodGet, path: "/v1/dashboard", churchID: churchID})
}

func (c *Client) ListBranches(ctx context.Context, churchID uint64) ([]model.Church, error) {
	return list[model.Church](ctx, c, call{method: http.MethodGet, path: "/v1/branches", churchID: churchID})
}

func (c *Client) CreateBranch(ctx context.Context, churchID uint64, in model.BranchInput) (model.Church, error) {
	return one[model.Church](ctx, c, call{method: http.MethodPost, path: "/v1/branches", body: in, churchID: churchID})
}
