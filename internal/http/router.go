package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/protomforms/response-service/internal/metrics"
	"github.com/protomforms/response-service/internal/middleware"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string
	SwaggerUser string
	SwaggerPass string
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimit:  100,
		RateWindow: time.Minute,
	}
}

// NewRouter creates and configures the Gin router for the response service.
func NewRouter(handler *Handler, statsHandler *StatsHandler, cacheHandler *CacheHandler, healthHandler *HealthHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	configureGlobalMiddleware(router, &cfg)
	registerInfrastructureRoutes(router, healthHandler, &cfg)

	api := router.Group("/api")
	api.Use(middleware.TimeoutWithDuration(30 * time.Second))
	registerResponseRoutes(api, handler)
	registerDashboardRoutes(api, statsHandler, cacheHandler)

	return router
}

// configureGlobalMiddleware sets up middleware applied to all routes.
func configureGlobalMiddleware(router *gin.Engine, cfg *RouterConfig) {
	allowedOrigins := cfg.CORSOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Accept-Language", "X-CSRF-Token", "Authorization", "accept", "Cache-Control", "X-Requested-With", "X-User-ID", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		metrics.PrometheusMiddleware(),
		middleware.Compression(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
	)

	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		router.Use(limiter.RateLimit())
	}
}

// registerInfrastructureRoutes registers health, metrics, and documentation routes.
func registerInfrastructureRoutes(router *gin.Engine, healthHandler *HealthHandler, cfg *RouterConfig) {
	healthHandler.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger with optional basic auth
	if cfg.SwaggerUser != "" && cfg.SwaggerPass != "" {
		authorized := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
			cfg.SwaggerUser: cfg.SwaggerPass,
		}))
		authorized.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	} else {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

// registerResponseRoutes registers submission, lookup and form lifecycle routes.
func registerResponseRoutes(api *gin.RouterGroup, handler *Handler) {
	if handler == nil {
		return
	}
	api.POST("/forms/:id/responses", handler.SubmitResponse)
	api.GET("/forms/:id/responses/:progressive", handler.GetResponseByProgressive)
	api.POST("/forms/:id/publish", handler.PublishForm)
	api.POST("/forms/:id/archive", handler.ArchiveForm)
	api.DELETE("/forms/:id", handler.DeleteForm)
}

// registerDashboardRoutes registers the cached aggregate and cache admin routes.
func registerDashboardRoutes(api *gin.RouterGroup, statsHandler *StatsHandler, cacheHandler *CacheHandler) {
	if statsHandler != nil {
		api.GET("/dashboard/stats", statsHandler.DashboardStats)
		api.GET("/forms/summary", statsHandler.FormsSummary)
	}
	if cacheHandler != nil {
		api.GET("/cache/stats", cacheHandler.CacheStats)
		api.DELETE("/cache", cacheHandler.InvalidateCache)
	}
}
