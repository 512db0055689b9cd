package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/db"
	apphttp "github.com/yungbote/pantry-backend/internal/http"
	httpH "github.com/yungbote/pantry-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pantry-backend/internal/http/middleware"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/cache"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Cfg        Config
	Repos      Repos
	Aggregates Aggregates
	Services   Services
	Metrics    *observability.Metrics
	Server     *apphttp.Server

	dbService    *db.Service
	authLimiter  *httpMW.RateLimiter
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(log)

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	catalogCache, err := cache.New(context.Background(), log, cfg.Cache)
	if err != nil {
		// The catalog still works uncached.
		log.Warn("catalog cache disabled", "error", err)
		catalogCache = cache.Noop{}
	}
	store, err := media.NewLocalStore(log, cfg.Media)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init media store: %w", err)
	}

	reposet := wireRepos(theDB, log)
	aggs := wireAggregates(theDB, log, cfg, reposet, metrics)
	serviceset, err := wireServices(theDB, log, cfg, reposet, aggs, catalogCache, store, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}

	limiter := httpMW.NewRateLimiter(cfg.AuthRateLimitPerMin, metrics)
	routerCfg := wireRouter(log, cfg, serviceset, metrics, limiter, theDB)
	server := apphttp.NewServer(log, apphttp.ServerConfig{
		Addr:            cfg.HTTPAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, routerCfg)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Aggregates:   aggs,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		dbService:    dbService,
		authLimiter:  limiter,
		otelShutdown: otelShutdown,
	}, nil
}

func wireRouter(log *logger.Logger, cfg Config, s Services, metrics *observability.Metrics, limiter *httpMW.RateLimiter, gdb *gorm.DB) apphttp.RouterConfig {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := gdb.DB(); err == nil {
		pinger = sqlDB
	}
	return apphttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.Otel.ServiceName,
		TracingEnabled:    cfg.Otel.Enabled,
		CORSOrigins:       cfg.CORSOrigins,
		RequestTimeout:    cfg.RequestTimeout,
		AuthLimiter:       limiter,
		MediaRoot:         cfg.Media.Root,
		MediaPath:         cfg.MediaPath,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, s.Auth),
		AuthHandler:       httpH.NewAuthHandler(s.Auth),
		UserHandler:       httpH.NewUserHandler(s.User, s.Membership),
		IngredientHandler: httpH.NewIngredientHandler(s.Ingredient),
		TagHandler:        httpH.NewTagHandler(s.Tag),
		RecipeHandler:     httpH.NewRecipeHandler(s.Recipe, s.Membership, s.Cart),
		HealthHandler:     httpH.NewHealthHandler(pinger),
	}
}

// Start launches the background collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 15*time.Second)
	if a.authLimiter != nil {
		go a.authLimiter.Cleanup(ctx, 5*time.Minute)
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil && a.Log != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
