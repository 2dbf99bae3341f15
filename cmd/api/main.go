package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/assets"
	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/config"
	cronrunner "github.com/webclinic017/sagetrader-api/internal/cron"
	"github.com/webclinic017/sagetrader-api/internal/db"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/handler"
	"github.com/webclinic017/sagetrader-api/internal/logger"
	gormrepository "github.com/webclinic017/sagetrader-api/internal/repository/gorm"
	"github.com/webclinic017/sagetrader-api/internal/service"

	_ "github.com/webclinic017/sagetrader-api/docs"
)

var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfgPath := os.Getenv("MSPT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MSPT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store, err := gormrepository.New(dbConn.Gorm)
	if err != nil {
		logger.Fatal("repository init failed", zap.Error(err))
	}

	revoker := initRevoker(cfg.Redis, logger)
	accounts := &service.AccountService{
		Users:   store.Users,
		JWT:     auth.JWT{Secret: []byte(cfg.Auth.SecretKey), TokenTTL: cfg.Auth.AccessTokenTTL},
		Revoker: revoker,
		Logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seeder := &service.Seeder{Accounts: accounts, Styles: store.Styles, Logger: logger}
	if err := seeder.Run(ctx, cfg.Auth.FirstSuperuserEmail, cfg.Auth.FirstSuperuserPassword); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	assetStore, err := assets.NewStore(cfg.Assets)
	if err != nil {
		logger.Fatal("asset service init failed", zap.Error(err))
	}
	if _, ok := assetStore.(assets.Unconfigured); ok {
		logger.Warn("asset service not configured, uploads will fail")
	}
	stager := assets.Stager{Dir: cfg.Assets.StagingDir}

	hub := events.NewHub(logger)
	go hub.Run(ctx, time.Minute)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := handler.NewRouter(handler.Deps{
		Config:   cfg,
		DB:       dbConn.Gorm,
		Store:    store,
		Accounts: accounts,
		Auth: &auth.Authenticator{
			JWT:     accounts.JWT,
			Revoker: revoker,
			Users:   store.Users,
			Logger:  logger,
		},
		Images: &service.ImageService{
			Images:     store.Images,
			Strategies: store.Strategies,
			Trades:     store.Trades,
			StudyItems: store.StudyItems,
			Studies:    store.Studies,
			Assets:     assetStore,
			Stager:     stager,
			FolderRoot: cfg.Assets.FolderRoot,
			MaxBytes:   cfg.Assets.MaxUploadBytes,
			Logger:     logger,
		},
		Events:  hub,
		Logger:  logger,
		Version: version,
	})

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if _, err := cronRunner.Add("staging_sweep", cfg.Cron.StagingSweep,
			cronrunner.SweepStaging(stager, cfg.Assets.StagingTTL, logger)); err != nil {
			logger.Warn("cron register staging sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// initRevoker prefers redis so logouts survive restarts and are shared across replicas.
func initRevoker(cfg config.RedisConfig, logger *zap.Logger) auth.Revoker {
	if strings.TrimSpace(cfg.Addr) == "" {
		logger.Info("redis not configured, token revocation kept in memory")
		return auth.NewMemoryRevoker()
	}
	r := auth.NewRedisRevoker(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		logger.Warn("redis ping failed, token revocation kept in memory", zap.Error(err))
		_ = r.Close()
		return auth.NewMemoryRevoker()
	}
	logger.Info("redis ok", zap.String("addr", cfg.Addr))
	return r
}
