package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/config"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/logger"
	"github.com/webclinic017/sagetrader-api/internal/middleware"
	gormrepository "github.com/webclinic017/sagetrader-api/internal/repository/gorm"
	"github.com/webclinic017/sagetrader-api/internal/service"
)

// Deps is everything the HTTP surface needs, built once in main.
type Deps struct {
	Config   config.Config
	DB       *gorm.DB
	Store    *gormrepository.Store
	Accounts *service.AccountService
	Auth     *auth.Authenticator
	Images   *service.ImageService
	Events   *events.Hub
	Logger   *zap.Logger
	Version  string
}

func NewRouter(d Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(d.Logger))
	engine.Use(corsMiddleware(d.Config.Server.CORSOrigins))

	prefix := strings.TrimRight(d.Config.Server.APIPrefix, "/")
	engine.Use(middleware.WriteAudit(d.Logger, prefix))

	checks := map[string]ReadyCheck{"db": DBCheck(d.DB)}
	if p, ok := d.Auth.Revoker.(interface{ Ping(context.Context) error }); ok {
		checks["revoker"] = p.Ping
	}
	(&HealthHandler{Version: d.Version, Checks: checks}).Register(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	public := engine.Group(prefix)
	private := engine.Group(prefix, d.Auth.Require())

	(&AccountHandler{
		Accounts:         d.Accounts,
		OpenRegistration: d.Config.Auth.OpenRegistration,
		Events:           d.Events,
		Logger:           d.Logger,
	}).Register(public, private)

	mspt := private.Group("/mspt")
	(&JournalHandler{
		Instruments:  d.Store.Instruments,
		Strategies:   d.Store.Strategies,
		Styles:       d.Store.Styles,
		Trades:       d.Store.Trades,
		TradingPlans: d.Store.TradingPlans,
		Tasks:        d.Store.Tasks,
		WatchLists:   d.Store.WatchLists,
		Studies:      d.Store.Studies,
		Attributes:   d.Store.Attributes,
		StudyItems:   d.Store.StudyItems,
		Stats:        &service.StrategyStatsService{Strategies: d.Store.Strategies},
		StudyViews:   &service.StudyService{Studies: d.Store.Studies, Attributes: d.Store.Attributes},
		Pager: Pager{
			DefaultSize: d.Config.Pagination.DefaultSize,
			MaxSize:     d.Config.Pagination.MaxSize,
		},
		Events: d.Events,
		Logger: d.Logger,
	}).Register(mspt)
	(&FileHandler{Images: d.Images, Events: d.Events, Logger: d.Logger}).Register(mspt)
	(&EventsHandler{Hub: d.Events, OriginPatterns: originHosts(d.Config.Server.CORSOrigins), Logger: d.Logger}).Register(mspt)

	return engine
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cors.New(cfg)
}

// originHosts converts CORS origins into the host patterns the websocket accept check wants.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
