package main

import (
	"context"
	"flag"
	"os"
	"time"

	"shiprate-backend/config"
	"shiprate-backend/internal/infrastructure/seed"
	pgrepo "shiprate-backend/internal/repository/postgres"
	"shiprate-backend/pkg/logger"
)

// Loads a YAML rate sheet into the reference tables.
//
//	go run ./cmd/seed -file rates.yaml
//	go run ./cmd/seed -file rates.yaml -dry-run
func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	file := flag.String("file", cfg.RateSheetPath, "rate sheet to import")
	dryRun := flag.Bool("dry-run", false, "validate the sheet without writing")
	flag.Parse()

	sheet, err := seed.LoadRateSheet(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read rate sheet")
	}

	if *dryRun {
		problems := seed.Validate(sheet)
		for _, p := range problems {
			log.Error().Msg(p)
		}
		if len(problems) > 0 {
			os.Exit(1)
		}
		log.Info().Str("file", *file).Msg("Rate sheet is valid")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgrepo.NewPgxPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pgrepo.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	importer := seed.NewImporter(pgrepo.NewReferenceRepository(pool), pgrepo.NewTransactionManager(pool))
	summary, err := importer.Import(ctx, sheet)
	if err != nil {
		log.Error().Err(err).Msg("Import failed")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Interface("summary", summary).Msg("Rate sheet imported")
}
