package handler

import (
	"errors"   // sentinel comparison
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/church-manager/internal/config"     // app configuration
	"github.com/iliyamo/church-manager/internal/model"      // auth DTOs shared with the client
	"github.com/iliyamo/church-manager/internal/repository" // repository sentinels
	"github.com/iliyamo/church-manager/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// issue creates a token pair for the user and stores the refresh hash.
func (h *AuthHandler) issue(c echo.Context, uid uint64, email string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, h.Cfg.AccessTTLMin)
	if err != nil {
		return resp, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return resp, err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return resp, err
	}
	resp.User.ID = uid
	resp.User.Email = email
	resp.Access = model.TokenPair{Token: access.Token, Expires: access.Exp}
	resp.Refresh = model.TokenPair{Token: refresh.Raw, Expires: refresh.Exp} // raw back to client
	return resp, nil
}

// Register: create user and return tokens immediately.  A new user belongs
// to no church yet.
func (h *AuthHandler) Register(c echo.Context) error {
	var req model.Credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := dbCtx(c)
	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	cancel()
	if err != nil {
		return fail(c, err, "create user")
	}

	resp, err := h.issue(c, uid, req.Email)
	if err != nil {
		return fail(c, err, "issue tokens")
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req model.Credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := dbCtx(c)
	u, err := h.Users.GetByEmail(ctx, req.Email)
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return fail(c, err, "query")
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issue(c, u.ID, u.Email)
	if err != nil {
		return fail(c, err, "issue tokens")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	// Only the request that revokes the token may rotate it.
	if err := h.Tokens.RevokeByHash(ctx, hash); errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	} else if err != nil {
		return fail(c, err, "revoke refresh")
	}

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return fail(c, err, "load user")
	}

	resp, err := h.issue(c, u.ID, u.Email)
	if err != nil {
		return fail(c, err, "issue tokens")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer's user when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fail(c, err, "logout")
		}
		return c.NoContent(http.StatusNoContent)
	}

	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		uid, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return fail(c, err, "logout")
		}
		return c.NoContent(http.StatusNoContent)
	}
	return badRequest(c, "provide Authorization header or refresh_token")
}
