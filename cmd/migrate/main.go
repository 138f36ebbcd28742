package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	"github.com/zatekoja/eventhub/pkg/config"
	"github.com/zatekoja/eventhub/pkg/secrets"
)

const usage = `Usage: migrate <command>

Commands:
  up        apply all pending migrations
  down [N]  roll back N migrations (default 1)
  version   print the applied schema version
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	if result, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets from Vault: %v\n", err)
		os.Exit(1)
	} else if result.Enabled {
		fmt.Fprintf(os.Stderr, "Loaded %d secrets from Vault\n", len(result.Loaded))
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: "eventhub-migrate",
		Env:     cfg.Server.Env,
		Level:   cfg.Server.LogLevel,
	})
	dbURL := cfg.Database.MigrationURL()

	switch flag.Arg(0) {
	case "up":
		if err := postgres.MigrateUp(dbURL); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		log.Info().Msg("Migrations applied")

	case "down":
		steps := 1
		if flag.NArg() > 1 {
			steps, err = strconv.Atoi(flag.Arg(1))
			if err != nil || steps <= 0 {
				log.Fatal().Str("steps", flag.Arg(1)).Msg("down expects a positive step count")
			}
		}
		if err := postgres.MigrateDown(dbURL, steps); err != nil {
			log.Fatal().Err(err).Msg("Rollback failed")
		}
		log.Info().Int("steps", steps).Msg("Migrations rolled back")

	case "version":
		version, dirty, err := postgres.MigrationVersion(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read schema version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")

	default:
		flag.Usage()
		os.Exit(2)
	}
}
