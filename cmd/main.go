// Package main is the entry point for the response-service application.
//
// @title           Response Service API
// @version         1.0.0
// @description     API for ingesting form responses with per-form progressive numbering
//
//	and serving cached dashboard aggregates.
//
// @contact.name   API Support
// @contact.url    https://github.com/protomforms/response-service
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @tag.name        Responses
// @tag.description Response submission and lookup operations
//
// @tag.name        Forms
// @tag.description Form lifecycle operations
//
// @tag.name        Dashboard
// @tag.description Cached aggregate statistics
//
// @tag.name        Cache
// @tag.description Aggregation cache inspection and invalidation
//
// @tag.name        Health
// @tag.description Health check endpoints
package main

import (
	_ "github.com/protomforms/response-service/docs" // swagger docs

	"github.com/rs/zerolog/log"

	"github.com/protomforms/response-service/config"
	"github.com/protomforms/response-service/internal/app"
)

func main() {
	cfg := config.Load()

	components, err := app.InitializeApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Initialization failed")
	}

	server := app.NewServer(components.Router, cfg.Server.Port)
	server.OnShutdown(components.Database.DB.Close)

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
