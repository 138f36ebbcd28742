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

	"github.com/zatekoja/eventhub/internal/adapters/database"
	"github.com/zatekoja/eventhub/internal/adapters/events"
	"github.com/zatekoja/eventhub/internal/api/handlers"
	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	"github.com/zatekoja/eventhub/pkg/config"
	"github.com/zatekoja/eventhub/pkg/secrets"
)

// The stream server fans Redis activity out to SSE clients so the API
// instances do not hold long-lived connections. It needs the database only
// to authorize each stream.
func main() {
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
		Service: cfg.OTEL.ServiceName + "-sse",
		Env:     cfg.Server.Env,
		Level:   cfg.Server.LogLevel,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()
	eventBus := events.NewRedisEventBus(redisClient)

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	store := database.NewStore(pgClient)
	sseHandler := handlers.NewSSEHandler(services.NewEventService(store, services.Collaborators{}), eventBus, handlers.DefaultHeartbeatInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/events/{id}/stream", sseHandler.StreamEventActivity)
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"connected_clients": %d}`, sseHandler.GetClientCount())
	})

	var handler http.Handler = mux
	handler = middleware.Identity(middleware.NewIdentityVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streams stay open
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("SSE server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("SSE server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("SSE server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("SSE server stopped")
}
