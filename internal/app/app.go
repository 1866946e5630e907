package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dlemaire/pulse/internal/config"
	"github.com/dlemaire/pulse/internal/httpserver"
	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/keepalive"
	"github.com/dlemaire/pulse/internal/logger"
	"github.com/dlemaire/pulse/internal/redis"
	"github.com/dlemaire/pulse/internal/scheduler"
	redisstore "github.com/dlemaire/pulse/internal/store/redis"
	"github.com/dlemaire/pulse/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	keepalive   *scheduler.KeepaliveTicker
	maintenance *scheduler.MaintenanceTicker
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)

	recorder := keepalive.NewRecorder(store, loggerClient, time.Now)
	aggregator := keepalive.NewAggregator(store, loggerClient, time.Now)
	maintenance := keepalive.NewMaintenance(store, loggerClient, time.Now)

	var keepaliveTicker *scheduler.KeepaliveTicker
	if cfg.KeepaliveInterval > 0 {
		keepaliveTicker = scheduler.NewKeepaliveTicker(recorder, loggerClient, cfg.KeepaliveInterval)
	} else {
		loggerClient.Info("keepalive ticker disabled, expecting external cron on /ping")
	}

	var maintenanceTicker *scheduler.MaintenanceTicker
	if cfg.MaintenanceInterval > 0 {
		maintenanceTicker = scheduler.NewMaintenanceTicker(maintenance, loggerClient, cfg.MaintenanceInterval)
	} else {
		loggerClient.Info("maintenance ticker disabled, expecting external cron on /maintenance")
	}

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		APIKey:           cfg.APIKey,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		PingBurst:        cfg.PingBurst,
		PingRefillPerMin: cfg.PingRefillPerMin,
		Store:            store,
		Recorder:         recorder,
		Aggregator:       aggregator,
		Maintenance:      maintenance,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		keepalive:   keepaliveTicker,
		maintenance: maintenanceTicker,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting pulse v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("pulse %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.keepalive != nil {
		if err := a.keepalive.Start(ctx); err != nil {
			return fmt.Errorf("failed to start keepalive ticker: %w", err)
		}
		a.logger.Info("keepalive ticker started",
			logger.Duration("interval", a.cfg.KeepaliveInterval))
	}

	if a.maintenance != nil {
		if err := a.maintenance.Start(ctx); err != nil {
			return fmt.Errorf("failed to start maintenance ticker: %w", err)
		}
		a.logger.Info("maintenance ticker started",
			logger.Duration("interval", a.cfg.MaintenanceInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.keepalive != nil {
		a.keepalive.Stop()
	}
	if a.maintenance != nil {
		a.maintenance.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ pulse stopped cleanly")
	return nil
}
