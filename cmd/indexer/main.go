package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/adapters/database"
	"github.com/zatekoja/eventhub/internal/adapters/search"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	"github.com/zatekoja/eventhub/pkg/config"
	"github.com/zatekoja/eventhub/pkg/secrets"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the events collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	_ = godotenv.Load()
	if _, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets from Vault: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: "eventhub-indexer",
		Env:     cfg.Server.Env,
		Level:   cfg.Server.LogLevel,
	})

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}
	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			log.Fatal().Str("interval", intervalValue).Msg("Interval must be a positive duration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}
		if interval <= 0 {
			return
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	schemaInit := tsClient.InitSchema
	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.EventsCollection).Msg("Resetting collection before reindex")
		schemaInit = tsClient.ResetCollection
	}
	if err := schemaInit(ctx); err != nil {
		return err
	}

	eventService := services.NewEventService(database.NewStore(pgClient), services.Collaborators{
		Search: search.NewTypesenseAdapter(tsClient),
	})
	indexed, err := eventService.Reindex(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("events", indexed).Msg("Indexed public upcoming events")
	return nil
}
