package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/church-manager/internal/model"
)

// ErrNoRefreshToken is returned by Refresh when the client holds no
// refresh token.
var ErrNoRefreshToken = errors.New("api: no refresh token")

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account and signs the client in as it.
func (c *Client) Register(ctx context.Context, cred model.Credentials) (model.AuthResponse, error) {
	return c.authenticate(ctx, "/v1/auth/register", cred)
}

// Login signs the client in.
func (c *Client) Login(ctx context.Context, cred model.Credentials) (model.AuthResponse, error) {
	return c.authenticate(ctx, "/v1/auth/login", cred)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (model.AuthResponse, error) {
	resp, err := one[model.AuthResponse](ctx, c, call{method: http.MethodPost, path: path, body: body, noAuth: true})
	if err != nil {
		return model.AuthResponse{}, err
	}
	c.store(resp)
	return resp, nil
}

// Refresh rotates the token pair.
func (c *Client) Refresh(ctx context.Context) (model.AuthResponse, error) {
	_, refresh := c.Tokens()
	if refresh == "" {
		return model.AuthResponse{}, ErrNoRefreshToken
	}
	return c.authenticate(ctx, "/v1/auth/refresh", refreshReq{RefreshToken: refresh})
}

// refreshTokens collapses concurrent refreshes triggered by parallel 401s
// into one rotation.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refreshing.Do("refresh", func() (any, error) {
		return c.Refresh(ctx)
	})
	return err
}

// Logout revokes the current refresh token and forgets both tokens. The
// tokens are forgotten even when revocation fails.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.Tokens()
	defer c.SetTokens("", "")
	if refresh == "" {
		return nil
	}
	return c.do(ctx, call{method: http.MethodPost, path: "/v1/auth/logout", body: refreshReq{RefreshToken: refresh}, noAuth: true}, nil)
}
