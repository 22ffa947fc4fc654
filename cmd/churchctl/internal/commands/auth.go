package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/church-manager/cmd/churchctl/internal/credentials"
	"github.com/iliyamo/church-manager/internal/api"
	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/session"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password; read from stdin when empty" env:"CHURCH_PASSWORD"`
	Register bool   `help:"Create the account before signing in" default:"false"`
}

func (l *LoginCmd) Run(ctx context.Context, g *Globals) error {
	password := l.Password
	if password == "" {
		fmt.Fprint(g.Out, "Password: ")
		line, err := bufio.NewReader(g.In).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	cred := model.Credentials{Email: strings.TrimSpace(l.Email), Password: password}

	store, err := credentials.NewStore(g.Config.TokenFile)
	if err != nil {
		return err
	}

	// The dialer hands back the client the manager signs in with so its
	// tokens can be saved afterwards.
	var client *api.Client
	mgr, err := g.newManager(func() session.Client {
		client = g.newClient()
		return client
	})
	if err != nil {
		return err
	}

	if l.Register {
		c := g.newClient()
		resp, err := c.Register(ctx, cred)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		client = c
		mgr.Attach(ctx, c, resp.User.ID)
	} else if _, err := mgr.Login(ctx, cred); err != nil {
		return err
	}

	access, refresh := client.Tokens()
	sess := credentials.Session{
		APIURL:       g.Config.APIURL,
		UserID:       mgr.UserID(),
		Email:        cred.Email,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if err := store.Save(sess); err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Signed in as %s\n", cred.Email)
	return nil
}

type LogoutCmd struct{}

// Run revokes the saved refresh token and forgets the session.  The local
// session is removed even when revocation fails.
func (l *LogoutCmd) Run(ctx context.Context, g *Globals) error {
	r, err := g.open(ctx)
	if err != nil {
		return err
	}
	logoutErr := r.mgr.Logout(ctx)
	if err := r.store.Clear(); err != nil {
		return err
	}
	if logoutErr != nil {
		g.Log.Warn().Err(logoutErr).Msg("token revocation failed")
	}
	fmt.Fprintln(g.Out, "Signed out")
	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		active, ok := r.layer.Resolver.CurrentActiveChurch()
		if !ok {
			fmt.Fprintf(g.Out, "%s (user %d), no active church\n", r.sess.Email, r.sess.UserID)
			return nil
		}
		p, err := value(r.layer.Queries.Profile(ctx))
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "%s (user %d)\n", p.Email, p.UserID)
		fmt.Fprintf(g.Out, "Active church: %s (%d) as %s\n", active.Name, active.ChurchID, active.Role)
		fmt.Fprintf(g.Out, "Permissions: %s\n", strings.Join(active.Permissions, ", "))
		return nil
	})
}
