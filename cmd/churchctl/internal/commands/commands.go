package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/cmd/churchctl/internal/credentials"
	"github.com/iliyamo/church-manager/internal/api"
	"github.com/iliyamo/church-manager/internal/config"
	"github.com/iliyamo/church-manager/internal/querycache"
	"github.com/iliyamo/church-manager/internal/session"
	"github.com/iliyamo/church-manager/internal/tenancy"
)

// errNoActiveChurch is returned by tenant commands while no church is
// selected.
var errNoActiveChurch = errors.New("no active church; run `churchctl use <church-id>` first")

type Globals struct {
	Debug   bool
	Version string
	Config  config.ClientConfig
	Log     zerolog.Logger
	In      io.Reader
	Out     io.Writer
}

// run is one signed-in invocation: a manager over a fresh query cache with
// the saved session attached.
type run struct {
	g      *Globals
	store  *credentials.Store
	sess   credentials.Session
	client *api.Client
	mgr    *session.Manager
	layer  *tenancy.Layer
}

func (g *Globals) newManager(dial session.Dialer) (*session.Manager, error) {
	cache, err := querycache.New(g.Config.CacheSize, querycache.WithLogger(g.Log))
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return session.NewManager(cache, dial, notifier{log: g.Log}, g.Config.ResourceStale, g.Log), nil
}

func (g *Globals) newClient() *api.Client {
	return api.New(g.Config.APIURL, g.Config.Timeout, g.Log)
}

// open restores the saved session.
func (g *Globals) open(ctx context.Context) (*run, error) {
	store, err := credentials.NewStore(g.Config.TokenFile)
	if err != nil {
		return nil, err
	}
	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	if sess.APIURL != "" {
		g.Config.APIURL = sess.APIURL
	}
	client := g.newClient()
	client.SetTokens(sess.AccessToken, sess.RefreshToken)

	mgr, err := g.newManager(func() session.Client { return g.newClient() })
	if err != nil {
		return nil, err
	}
	layer := mgr.Attach(ctx, client, sess.UserID)
	return &run{g: g, store: store, sess: sess, client: client, mgr: mgr, layer: layer}, nil
}

// close saves the token pair, which a refresh during the run may have
// rotated.
func (r *run) close() error {
	access, refresh := r.client.Tokens()
	if access == r.sess.AccessToken && refresh == r.sess.RefreshToken {
		return nil
	}
	r.sess.AccessToken, r.sess.RefreshToken = access, refresh
	return r.store.Save(r.sess)
}

// within runs fn against the open session and saves rotated tokens after.
func (g *Globals) within(ctx context.Context, fn func(r *run) error) error {
	r, err := g.open(ctx)
	if err != nil {
		return err
	}
	err = fn(r)
	if cerr := r.close(); cerr != nil && err == nil {
		err = cerr
	}
	if api.StatusOf(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w; session expired, run `churchctl login` again", err)
	}
	return err
}

// value unwraps a tenant read.
func value[T any](res tenancy.Result[T]) (T, error) {
	if res.Disabled() {
		var zero T
		return zero, errNoActiveChurch
	}
	return res.Data, res.Err
}

func (g *Globals) table() *tabwriter.Writer {
	return tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
}

// notifier reports tenancy notifications through the CLI logger; failures
// reach the user as the command's error.
type notifier struct{ log zerolog.Logger }

func (n notifier) Success(msg string) { n.log.Info().Msg(msg) }
func (n notifier) Error(err error)    { n.log.Debug().Err(err).Msg("request failed") }
