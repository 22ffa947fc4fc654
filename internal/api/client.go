// Package api is a typed client for the church management REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/tenancy"
)

var _ tenancy.Source = (*Client)(nil)

// HeaderChurchID names the church a tenant scoped request was issued for.
const HeaderChurchID = "X-Church-ID"

// Client talks to the API on behalf of one signed-in user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	mu      sync.RWMutex
	access  string
	refresh string
	userID  uint64

	refreshing singleflight.Group
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SetTokens installs an existing token pair, e.g. one restored from disk.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access, c.refresh = access, refresh
}

// Tokens returns the current access and refresh tokens.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

// UserID returns the id of the user the client last authenticated as.
func (c *Client) UserID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) store(resp model.AuthResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = resp.Access.Token
	c.refresh = resp.Refresh.Token
	c.userID = resp.User.ID
}

// call describes one request.
type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	churchID uint64 // sent as X-Church-ID when non-zero
	noAuth   bool
}

// do sends the call and decodes a 2xx JSON body into out (which may be nil).
// A 401 on an authenticated call triggers one token refresh and a retry.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	var payload []byte
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = b
	}

	err := c.send(ctx, cl, payload, out)
	if cl.noAuth || StatusOf(err) != http.StatusUnauthorized {
		return err
	}
	if _, refresh := c.Tokens(); refresh == "" {
		return err
	}
	if rerr := c.refreshTokens(ctx); rerr != nil {
		c.log.Debug().Err(rerr).Msg("token refresh failed")
		return err
	}
	return c.send(ctx, cl, payload, out)
}

func (c *Client) send(ctx context.Context, cl call, payload []byte, out any) error {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.noAuth {
		if access, _ := c.Tokens(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}
	if cl.churchID != 0 {
		req.Header.Set(HeaderChurchID, strconv.FormatUint(cl.churchID, 10))
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", cl.method).
		Str("path", cl.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &Error{Status: resp.StatusCode, Message: body.Error}
}

type items[T any] struct {
	Items []T `json:"items"`
}

func list[T any](ctx context.Context, c *Client, cl call) ([]T, error) {
	var out items[T]
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return out.Items, nil
}

func one[T any](ctx context.Context, c *Client, cl call) (T, error) {
	var out T
	err := c.do(ctx, cl, &out)
	return out, err
}

func idPath(prefix string, id uint64) string {
	return prefix + "/" + strconv.FormatUint(id, 10)
}
