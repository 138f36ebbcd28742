package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/adapters/database"
	"github.com/zatekoja/eventhub/internal/adapters/search"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	"github.com/zatekoja/eventhub/pkg/config"
	"github.com/zatekoja/eventhub/pkg/secrets"
)

type seedEvent struct {
	organizer string
	title     string
	about     string
	location  string
	startIn   time.Duration
	length    time.Duration
	public    bool
	rsvps     map[string]entities.RSVPStatus
	reviews   map[string]int
}

var members = map[string]string{
	"seed-ada":   "Ada Okafor",
	"seed-bayo":  "Bayo Adeyemi",
	"seed-chika": "Chika Nwosu",
	"seed-dami":  "Dami Bello",
}

var seedEvents = []seedEvent{
	{
		organizer: "seed-ada", title: "Saturday Park Cleanup", about: "Bring gloves, we bring bags.",
		location: "Freedom Park", startIn: -10 * 24 * time.Hour, length: 3 * time.Hour, public: true,
		rsvps:   map[string]entities.RSVPStatus{"seed-bayo": entities.RSVPStatusGoing, "seed-chika": entities.RSVPStatusGoing},
		reviews: map[string]int{"seed-bayo": 5, "seed-chika": 4},
	},
	{
		organizer: "seed-bayo", title: "Jazz Night", about: "Open stage for local musicians.",
		location: "Terra Kulture", startIn: 7 * 24 * time.Hour, length: 4 * time.Hour, public: true,
		rsvps: map[string]entities.RSVPStatus{"seed-ada": entities.RSVPStatusMaybe, "seed-dami": entities.RSVPStatusGoing},
	},
	{
		organizer: "seed-chika", title: "Book Club: Half of a Yellow Sun", about: "Chapters 1 to 8.",
		location: "Community Library", startIn: 14 * 24 * time.Hour, length: 2 * time.Hour, public: true,
		rsvps: map[string]entities.RSVPStatus{"seed-ada": entities.RSVPStatusGoing, "seed-bayo": entities.RSVPStatusNotGoing},
	},
	{
		organizer: "seed-dami", title: "Committee Planning", about: "Budget for the street festival.",
		location: "Online", startIn: 3 * 24 * time.Hour, length: time.Hour, public: false,
	},
}

func main() {
	_ = godotenv.Load()
	if _, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets from Vault: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: "eventhub-seed",
		Env:     cfg.Server.Env,
		Level:   cfg.Server.LogLevel,
	})

	ctx := context.Background()
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE reviews, rsvps, events, profiles CASCADE`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	var searchProvider providers.EventSearchProvider
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err == nil && tsClient.InitSchema(ctx) == nil {
			searchProvider = search.NewTypesenseAdapter(tsClient)
		} else {
			log.Warn().Err(err).Msg("Seeding without search index")
		}
	}

	store := database.NewStore(pgClient)
	collab := services.Collaborators{Search: searchProvider}
	profileService := services.NewProfileService(store, collab)
	eventService := services.NewEventService(store, collab)
	rsvpService := services.NewRSVPService(store, collab)
	reviewService := services.NewReviewService(store, collab)

	for userID, name := range members {
		if _, _, err := profileService.RegisterIdentity(ctx, entities.NewIdentity(userID), rules.RegisterIdentityInput{FullName: name}); err != nil {
			log.Fatal().Err(err).Str("user_id", userID).Msg("Failed to register member")
		}
	}

	now := time.Now().UTC().Truncate(time.Hour)
	for _, se := range seedEvents {
		start := now.Add(se.startIn)
		public := se.public
		event, err := eventService.CreateEvent(ctx, entities.NewIdentity(se.organizer), rules.CreateEventInput{
			Title:       se.title,
			Description: se.about,
			Location:    se.location,
			StartTime:   start,
			EndTime:     start.Add(se.length),
			IsPublic:    &public,
		})
		if err != nil {
			log.Error().Err(err).Str("title", se.title).Msg("Failed to create event")
			continue
		}

		for userID, status := range se.rsvps {
			if _, err := rsvpService.UpsertRSVP(ctx, entities.NewIdentity(userID), event.ID, rules.RSVPInput{Status: string(status)}); err != nil {
				log.Warn().Err(err).Str("event", se.title).Str("user_id", userID).Msg("Failed to RSVP")
			}
		}
		for userID, rating := range se.reviews {
			if _, err := reviewService.SubmitReview(ctx, entities.NewIdentity(userID), event.ID, rules.ReviewInput{
				Rating:  rating,
				Comment: fmt.Sprintf("%s was worth it.", se.title),
			}); err != nil {
				log.Warn().Err(err).Str("event", se.title).Str("user_id", userID).Msg("Failed to review")
			}
		}
		log.Info().Str("event_id", event.ID).Str("title", se.title).Msg("Seeded event")
	}

	log.Info().Int("members", len(members)).Int("events", len(seedEvents)).Msg("Seeding complete")
}
