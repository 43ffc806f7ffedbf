// cmd/seeder/main.go
package main

import (
	"context"
	"os"

	"github.com/dlswn666/johapon-api/internal/config"
	"github.com/dlswn666/johapon-api/internal/db"
	"github.com/dlswn666/johapon-api/internal/logging"
)

var seedFiles = []string{
	"seed/schema.sql",
	"seed/pricing.sql",
}

func main() {
	// only the database settings matter here
	cfg, _ := config.Load()
	log := logging.New(cfg.LogLevel, true)

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer conn.Close()

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("seeded")
	}

	log.Info().Msg("database seeding completed")
}
