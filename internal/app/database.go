package app

import (
	"github.com/rs/zerolog/log"

	"github.com/protomforms/response-service/config"
	"github.com/protomforms/response-service/internal/circuitbreaker"
	"github.com/protomforms/response-service/internal/repository"
)

// DatabaseComponents holds database-related components.
type DatabaseComponents struct {
	DB               *repository.MongoDB
	Forms            repository.FormRepositoryInterface
	Responses        repository.ResponseRepositoryInterface
	Counters         repository.CounterRepositoryInterface
	Stats            repository.StatsRepositoryInterface
	AggregateBreaker *circuitbreaker.CircuitBreaker
}

// InitializeDatabase connects to MongoDB and builds the repositories. The
// connection is required: responses cannot be ingested without the counter
// collection backing the allocator.
func InitializeDatabase(cfg config.DatabaseConfig) (*DatabaseComponents, error) {
	db, err := repository.NewMongoDB(cfg.URI, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}

	log.Info().Str("database", cfg.DatabaseName).Msg("Connected to MongoDB")

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          circuitbreaker.DefaultConfig().Timeout,
		Name:             "mongodb-aggregates",
	})

	return &DatabaseComponents{
		DB:               db,
		Forms:            repository.NewFormRepository(db),
		Responses:        repository.NewResponseRepository(db),
		Counters:         repository.NewCounterRepository(db),
		Stats:            repository.NewStatsRepository(db),
		AggregateBreaker: breaker,
	}, nil
}
