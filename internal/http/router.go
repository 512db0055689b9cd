package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pantry-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pantry-backend/internal/http/middleware"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	RequestTimeout time.Duration
	AuthLimiter    *httpMW.RateLimiter

	// MediaRoot is served under MediaPath when set.
	MediaRoot string
	MediaPath string

	AuthMiddleware    *httpMW.AuthMiddleware
	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	IngredientHandler *httpH.IngredientHandler
	TagHandler        *httpH.TagHandler
	RecipeHandler     *httpH.RecipeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext(cfg.RequestTimeout))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.MediaRoot != "" {
		mediaPath := cfg.MediaPath
		if mediaPath == "" {
			mediaPath = "/media"
		}
		r.StaticFS(mediaPath, http.Dir(cfg.MediaRoot))
	}

	var optional gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	var required gin.HandlerFunc = func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	if cfg.AuthMiddleware != nil {
		optional = cfg.AuthMiddleware.OptionalAuth()
		required = cfg.AuthMiddleware.RequireAuth()
	}
	var limited gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.AuthLimiter != nil {
		limited = cfg.AuthLimiter.Middleware()
	}

	api := r.Group("/api")

	// Auth + users
	if cfg.AuthHandler != nil {
		api.POST("/users", limited, cfg.AuthHandler.Register)
		api.POST("/auth/token/login", limited, cfg.AuthHandler.Login)
		api.POST("/auth/token/logout", required, cfg.AuthHandler.Logout)
	}
	if cfg.UserHandler != nil {
		api.GET("/users/me", required, cfg.UserHandler.GetMe)
		api.PUT("/users/me/avatar", required, cfg.UserHandler.SetAvatar)
		api.DELETE("/users/me/avatar", required, cfg.UserHandler.DeleteAvatar)
		api.GET("/users/subscriptions", required, cfg.UserHandler.ListSubscriptions)
		api.GET("/users/:id", optional, cfg.UserHandler.GetByID)
		api.POST("/users/:id/subscribe", required, cfg.UserHandler.Subscribe)
		api.DELETE("/users/:id/subscribe", required, cfg.UserHandler.Unsubscribe)
	}

	// Catalog
	if cfg.IngredientHandler != nil {
		api.GET("/ingredients", cfg.IngredientHandler.List)
		api.GET("/ingredients/:id", cfg.IngredientHandler.Get)
	}
	if cfg.TagHandler != nil {
		api.GET("/tags", cfg.TagHandler.List)
		api.GET("/tags/:id", cfg.TagHandler.Get)
	}

	// Recipes
	if cfg.RecipeHandler != nil {
		api.GET("/recipes", optional, cfg.RecipeHandler.List)
		api.GET("/recipes/download_shopping_cart", required, cfg.RecipeHandler.DownloadShoppingCart)
		api.GET("/recipes/:id", optional, cfg.RecipeHandler.Get)
		api.GET("/recipes/:id/get-link", optional, cfg.RecipeHandler.GetLink)
		api.POST("/recipes", required, cfg.RecipeHandler.Create)
		api.PATCH("/recipes/:id", required, cfg.RecipeHandler.Update)
		api.DELETE("/recipes/:id", required, cfg.RecipeHandler.Delete)
		api.POST("/recipes/:id/favorite", required, cfg.RecipeHandler.AddFavorite)
		api.DELETE("/recipes/:id/favorite", required, cfg.RecipeHandler.RemoveFavorite)
		api.POST("/recipes/:id/shopping_cart", required, cfg.RecipeHandler.AddToCart)
		api.DELETE("/recipes/:id/shopping_cart", required, cfg.RecipeHandler.RemoveFromCart)

		// Short links live outside /api.
		r.GET("/l/:id", cfg.RecipeHandler.FollowShortLink)
	}

	return r
}
