package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/cybersms/numstore/internal/activation"
	"github.com/cybersms/numstore/internal/config"
	"github.com/cybersms/numstore/internal/db"
	"github.com/cybersms/numstore/internal/http/api/front"
	"github.com/cybersms/numstore/internal/logging"
	"github.com/cybersms/numstore/internal/models"
	"github.com/cybersms/numstore/internal/provider"
	"github.com/cybersms/numstore/internal/session"
	internalsettings "github.com/cybersms/numstore/internal/settings"
	"github.com/cybersms/numstore/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Run boots the storefront: database, provider client, coordinator and the
// HTTP server. It blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSnapshot := internalsettings.RefreshDBConfigSnapshot(ctx, conn); errSnapshot != nil {
		log.WithError(errSnapshot).Warn("load settings snapshot failed, using defaults")
	}

	cache := provider.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if errPing := rdb.Ping(ctx).Err(); errPing != nil {
			log.WithError(errPing).Warn("redis unreachable, falling back to memory cache")
		} else {
			cache = provider.NewRedisCache(rdb)
		}
	}

	client := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout(), cache)
	sessions := session.NewManager(client)
	activations := store.NewActivationStore(conn)

	coordinator := activation.NewCoordinator(client, activations, sessions)
	coordinator.SetNotifier(func(record models.Activation) {
		code := ""
		if record.SMSCode != nil {
			code = *record.SMSCode
		}
		log.Infof("sms received (activation=%s customer=%d code=%s)", record.ID, record.CustomerID, code)
	})
	coordinator.Start(ctx)
	defer coordinator.Stop()
	if errResume := coordinator.Resume(ctx); errResume != nil {
		log.WithError(errResume).Warn("resume waiting activations failed")
	}
	if cleaner := activation.NewRetentionCleaner(activations); cleaner != nil {
		cleaner.Start(ctx)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	front.RegisterFrontRoutes(engine, front.Deps{
		JWT:         cfg.JWT,
		Provider:    client,
		Sessions:    sessions,
		Coordinator: coordinator,
		Activations: activations,
		Favorites:   store.NewFavoriteStore(conn),
		Credentials: store.NewCredentialStore(conn),
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("storefront listening on %s", cfg.Server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case errServe := <-serveErr:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		log.WithError(errShutdown).Warn("server shutdown failed")
	}
	return nil
}
