package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery
	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/internal/config"
	"github.com/iliyamo/church-manager/internal/database"
	"github.com/iliyamo/church-manager/internal/handler"
	"github.com/iliyamo/church-manager/internal/logger"
	"github.com/iliyamo/church-manager/internal/middleware"
	"github.com/iliyamo/church-manager/internal/queue"
	"github.com/iliyamo/church-manager/internal/repository"
	"github.com/iliyamo/church-manager/internal/router"
	"github.com/iliyamo/church-manager/internal/service"
)

func main() {
	config.LoadEnvFiles()
	cfg := config.Load() // Load environment config
	log := logger.Setup(cfg.Dev())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	// Redis is optional: without it the response cache and the rate limiter
	// are disabled.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewSessionTokenRepo(db)
	churches := repository.NewChurchRepo(db)
	go purgeTokens(ctx, tokens, log)

	cache := middleware.NewTenantCache(config.LoadCacheConfig(), rdb, log)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)

	churchHandler := handler.NewChurchHandler(churches, users, cache, nil)
	broker := config.LoadBrokerConfig()
	if broker.Enabled {
		pub := service.NewPublisher(broker.URL, broker.Queue, log)
		defer pub.Close()
		churchHandler.Events = pub
		if rdb != nil {
			consumer := queue.NewConsumer(broker.URL, broker.Queue, cache, log)
			go func() { _ = consumer.Run(ctx) }()
		}
	}

	health := &handler.HealthHandler{DB: db}
	if rdb != nil {
		health.Redis = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(logger.RequestLogger(log), echomw.Recover())

	router.RegisterRoutes(e, health)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens))
	router.RegisterChurches(e, churchHandler, cfg.JWTSecret, limit)
	router.RegisterTenant(e, router.TenantDeps{
		JWTSecret: cfg.JWTSecret,
		Loader:    churches,
		Limit:     limit,
		Cache:     cache,
		Churches:  churchHandler,
		Resources: &handler.TenantHandler{
			Members:    repository.NewMemberRepo(db),
			Visitors:   repository.NewVisitorRepo(db),
			Ministries: repository.NewMinistryRepo(db),
			Activities: repository.NewActivityRepo(db),
			Prayers:    repository.NewPrayerRepo(db),
			Dashboard:  repository.NewDashboardRepo(db),
		},
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// purgeTokens drops refresh tokens that have been dead for a day, once at
// startup and then hourly.
func purgeTokens(ctx context.Context, tokens *repository.SessionTokenRepo, log zerolog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		n, err := tokens.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("purge refresh tokens")
		} else if n > 0 {
			log.Debug().Int64("rows", n).Msg("purged refresh tokens")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
