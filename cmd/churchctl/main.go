package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/cmd/churchctl/internal/commands"
	"github.com/iliyamo/church-manager/internal/config"
	"github.com/iliyamo/church-manager/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login      commands.LoginCmd      `cmd:"" help:"Sign in and save the session"`
		Logout     commands.LogoutCmd     `cmd:"" help:"Revoke and forget the saved session"`
		Whoami     commands.WhoamiCmd     `cmd:"" help:"Show the signed-in user and active church"`
		Churches   commands.ChurchesCmd   `cmd:"" help:"List your churches"`
		Use        commands.UseCmd        `cmd:"" help:"Switch the active church"`
		Branches   commands.BranchesCmd   `cmd:"" help:"List branches of the active church"`
		Members    commands.MembersCmd    `cmd:"" help:"List members of the active church"`
		Dashboard  commands.DashboardCmd  `cmd:"" help:"Show the active church dashboard"`
		Visitors   commands.VisitorsCmd   `cmd:"" help:"List visitors"`
		Ministries commands.MinistriesCmd `cmd:"" help:"List ministries"`
		Activities commands.ActivitiesCmd `cmd:"" help:"List activities"`
		Prayers    commands.PrayersCmd    `cmd:"" help:"List prayer requests"`
		API        string                 `help:"API base URL (overrides CHURCH_API_URL)" default:""`
		Debug      bool                   `help:"Enable debug mode."`
		Version    kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("churchctl"),
		kong.Description("Church management from the command line."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	config.LoadEnvFiles()
	cfg := config.LoadClientConfig()
	if cli.API != "" {
		cfg.APIURL = cli.API
	}
	log := logger.Setup(cli.Debug)
	if !cli.Debug {
		log = log.Level(zerolog.WarnLevel)
	}

	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Version: version,
		Config:  cfg,
		Log:     log,
		In:      os.Stdin,
		Out:     os.Stdout,
	})
	cmd.FatalIfErrorf(err)
}
