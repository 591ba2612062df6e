package app

import (
	"github.com/gin-gonic/gin"

	"github.com/protomforms/response-service/config"
	"github.com/protomforms/response-service/internal/cache"
	"github.com/protomforms/response-service/internal/http"
	"github.com/protomforms/response-service/internal/metrics"
	"github.com/protomforms/response-service/internal/sequence"
	"github.com/protomforms/response-service/internal/service"
)

// Components holds the wired application, exposed for the entry point and
// integration tests.
type Components struct {
	Router   *gin.Engine
	Database *DatabaseComponents
}

// InitializeApp creates and wires all application dependencies.
func InitializeApp(cfg config.Config) (*Components, error) {
	InitializeLogger()

	db, err := InitializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	store := cache.NewStore(cfg.Cache.Capacity)
	aggregationCache := cache.NewAggregationCache(store, cfg.Cache.ComputeTimeout)
	metrics.UpdateCacheMetrics(store.Len(), cfg.Cache.Capacity)

	allocator := sequence.NewAllocator(db.Forms, db.Counters, cfg.Sequence.MaxRetries)

	ingestion := service.NewIngestionService(db.Forms, db.Responses, db.Counters, allocator, aggregationCache)
	stats := service.NewStatsService(
		db.Stats, db.Forms, db.Responses,
		aggregationCache, db.AggregateBreaker,
		cfg.Cache.StatsTTL, cfg.Cache.SummaryTTL,
	)

	handler := http.NewHandler(ingestion)
	statsHandler := http.NewStatsHandler(stats)
	cacheHandler := http.NewCacheHandler(stats)

	healthHandler := http.NewHealthHandler()
	healthHandler.RegisterChecker("database", http.HealthCheckerFunc(db.DB.HealthCheck))
	healthHandler.RegisterCircuitBreaker("mongodb_aggregates", db.AggregateBreaker)

	routerCfg := http.RouterConfig{
		RateLimit:   cfg.Server.RateLimit,
		RateWindow:  cfg.Server.RateWindow,
		CORSOrigins: cfg.Server.CORSOrigins,
		SwaggerUser: cfg.Server.SwaggerUser,
		SwaggerPass: cfg.Server.SwaggerPass,
	}
	router := http.NewRouter(handler, statsHandler, cacheHandler, healthHandler, routerCfg)

	return &Components{Router: router, Database: db}, nil
}
