package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/adapters/cache"
	"github.com/zatekoja/eventhub/internal/adapters/database"
	"github.com/zatekoja/eventhub/internal/adapters/events"
	"github.com/zatekoja/eventhub/internal/adapters/memory"
	"github.com/zatekoja/eventhub/internal/adapters/search"
	"github.com/zatekoja/eventhub/internal/api/handlers"
	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/api/routes"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	"github.com/zatekoja/eventhub/pkg/config"
	"github.com/zatekoja/eventhub/pkg/secrets"
)

func main() {
	// A missing .env file is normal outside local development
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
		Service: cfg.OTEL.ServiceName,
		Env:     cfg.Server.Env,
		Level:   cfg.Server.LogLevel,
	})

	if cfg.Auth.JWTSecret == "" {
		if cfg.Server.Env != "development" {
			log.Fatal().Msg("JWT_SECRET is required")
		}
		log.Warn().Msg("JWT_SECRET is empty, identity tokens are not secure")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// Redis backs the stats cache and the cross-instance event bus. Without
	// it the process runs uncached with an in-process bus.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without it")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}
	if eventBus == nil {
		eventBus = events.NewLocalEventBus()
	}

	statsRepo := store.Stats()
	var statsCache *database.CachedStatsAdapter
	if cacheProvider != nil && cfg.Stats.CacheTTL > 0 {
		statsCache = database.NewCachedStatsAdapter(statsRepo, cacheProvider, cfg.Stats.CacheTTL)
		statsCache.OnLookup(func(ctx context.Context, aggregate string, hit bool) {
			if hit {
				observability.RecordCacheHit(ctx, metrics, aggregate)
			} else {
				observability.RecordCacheMiss(ctx, metrics, aggregate)
			}
		})
		statsRepo = statsCache
		log.Info().Dur("ttl", cfg.Stats.CacheTTL).Msg("Stats cache enabled")
	}

	var searchProvider providers.EventSearchProvider
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Typesense client, text search uses the store")
		} else if err := typesenseClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema, text search uses the store")
		} else {
			searchProvider = search.NewTypesenseAdapter(typesenseClient)
			log.Info().Str("url", cfg.Typesense.URL).Msg("Typesense search enabled")
		}
	}

	collab := services.Collaborators{
		EventBus: eventBus,
		Search:   searchProvider,
		Metrics:  metrics,
	}
	var invalidation *services.CacheInvalidationService
	if statsCache != nil {
		collab.Stats = statsCache
		// Other instances share the cache; the activity channel tells this
		// one about their writes too.
		invalidation = services.NewCacheInvalidationService(statsCache, eventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			invalidation = nil
		}
	}

	eventService := services.NewEventService(store, collab)
	router := routes.NewRouter(routes.Handlers{
		Profiles: handlers.NewProfileHandler(services.NewProfileService(store, collab)),
		Events:   handlers.NewEventHandler(eventService),
		RSVPs:    handlers.NewRSVPHandler(services.NewRSVPService(store, collab)),
		Reviews:  handlers.NewReviewHandler(services.NewReviewService(store, collab)),
		Stats:    handlers.NewStatsHandler(services.NewStatsService(store, statsRepo, metrics, cfg.Stats.MaxTrendDays)),
		Stream:   handlers.NewSSEHandler(eventService, eventBus, handlers.DefaultHeartbeatInterval),
	}, routes.Options{
		Store:          store,
		Verifier:       middleware.NewIdentityVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		InternalToken:  cfg.Auth.InternalToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metrics,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // activity streams stay open
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("store", cfg.Store.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	// Request contexts derive from ctx, so this ends open streams
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if invalidation != nil {
		invalidation.Stop()
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
}

// openStore builds the configured entity store and a matching cleanup.
func openStore(ctx context.Context, cfg *config.Config) (repositories.Store, func()) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.MigrationURL()); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Database migrations applied")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	log.Info().Str("host", cfg.Database.Host).Msg("PostgreSQL client initialized")

	return database.NewStore(pgClient), func() {
		if err := pgClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL client")
		}
	}
}
