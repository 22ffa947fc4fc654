// Package session owns the signed-in user's API client and the query cache
// shared across users of one process, and tears the cache down whenever the
// identity behind it changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/internal/api"
	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/querycache"
	"github.com/iliyamo/church-manager/internal/tenancy"
)

// ErrSignedOut is returned by Layer when nobody is signed in.
var ErrSignedOut = errors.New("session: signed out")

// Client is what the manager needs from an API client.
type Client interface {
	tenancy.Source
	Login(ctx context.Context, cred model.Credentials) (model.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Dialer builds a fresh client for a new sign-in.
type Dialer func() Client

// APIDialer dials the REST API with api.New.
func APIDialer(baseURL string, timeout time.Duration, log zerolog.Logger) Dialer {
	return func() Client { return api.New(baseURL, timeout, log) }
}

// Manager is safe for concurrent use.
type Manager struct {
	cache     *querycache.Cache
	dial      Dialer
	notify    tenancy.Notifier
	staleTime time.Duration
	log       zerolog.Logger

	mu     sync.Mutex
	id     string
	userID uint64
	client Client
	layer  *tenancy.Layer
	resync atomic.Bool
}

// NewManager creates a manager over cache. A nil notifier logs.
func NewManager(cache *querycache.Cache, dial Dialer, notify tenancy.Notifier, staleTime time.Duration, log zerolog.Logger) *Manager {
	if notify == nil {
		notify = tenancy.LogNotifier{Log: log}
	}
	return &Manager{cache: cache, dial: dial, notify: notify, staleTime: staleTime, log: log}
}

// Login signs in as cred. If another session is open it is torn down first,
// so nothing cached for the previous user can answer a read made for the
// new one. The new user's active church is fetched before Login returns;
// a failure there leaves the session open with every tenant query inert.
func (m *Manager) Login(ctx context.Context, cred model.Credentials) (*tenancy.Layer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.layer != nil {
		_ = m.teardownLocked(ctx)
	}

	client := m.dial()
	resp, err := client.Login(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return m.openLocked(ctx, client, resp.User.ID), nil
}

// Attach opens a session over a client that is already authenticated, such
// as one whose tokens were restored from disk. Any open session is torn
// down first, exactly as for Login.
func (m *Manager) Attach(ctx context.Context, client Client, userID uint64) *tenancy.Layer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.layer != nil {
		_ = m.teardownLocked(ctx)
	}
	return m.openLocked(ctx, client, userID)
}

func (m *Manager) openLocked(ctx context.Context, client Client, userID uint64) *tenancy.Layer {
	layer := tenancy.New(m.cache, client, &watchNotifier{next: m.notify, resync: &m.resync}, m.staleTime, m.log.With().Uint64("user_id", userID).Logger())
	m.id = uuid.NewString()
	m.userID = userID
	m.client = client
	m.layer = layer
	m.resync.Store(false)

	m.log.Info().Str("session_id", m.id).Uint64("user_id", userID).Msg("signed in")

	if err := layer.Invalidator.ClearAllChurchCache(ctx); err != nil {
		m.log.Warn().Err(err).Msg("active church unavailable after sign in")
	}
	return layer
}

// Logout evicts every church-scoped entry, then revokes the session's
// tokens. Eviction happens first and unconditionally.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.layer == nil {
		return nil
	}
	return m.teardownLocked(ctx)
}

func (m *Manager) teardownLocked(ctx context.Context) error {
	evicted := m.layer.Policy.EvictAll()
	err := m.client.Logout(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("token revocation failed")
	}
	m.log.Info().Str("session_id", m.id).Uint64("user_id", m.userID).Int("evicted", evicted).Msg("signed out")
	m.id, m.userID, m.client, m.layer = "", 0, nil, nil
	return err
}

// Layer returns the open session's tenancy layer. When a request was
// rejected because the server's active church differs from the cached one
// (another device switched), the cache is resynchronised first.
func (m *Manager) Layer(ctx context.Context) (*tenancy.Layer, error) {
	m.mu.Lock()
	layer := m.layer
	m.mu.Unlock()
	if layer == nil {
		return nil, ErrSignedOut
	}
	if m.resync.CompareAndSwap(true, false) {
		m.log.Info().Msg("active church changed remotely, resynchronising")
		if err := layer.Invalidator.ClearAllChurchCache(ctx); err != nil {
			return layer, err
		}
	}
	return layer, nil
}

// UserID returns the signed-in user, or 0.
func (m *Manager) UserID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// watchNotifier flags a resync when the server reports that the church
// named by a request is no longer the session's active church.
type watchNotifier struct {
	next   tenancy.Notifier
	resync *atomic.Bool
}

func (w *watchNotifier) Success(msg string) { w.next.Success(msg) }

func (w *watchNotifier) Error(err error) {
	if errors.Is(err, api.ErrChurchMismatch) {
		w.resync.Store(true)
	}
	w.next.Error(err)
}
