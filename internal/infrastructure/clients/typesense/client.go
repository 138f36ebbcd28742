package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/eventhub/pkg/config"
	"github.com/zatekoja/eventhub/pkg/retry"
)

const (
	EventsCollection = "events"
)

// Client wraps the Typesense client that backs event text search
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.Do(ctx, retry.DefaultConfig(), "typesense",
		func(ctx context.Context) error {
			healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			healthy, err := client.Health(healthCtx, 2*time.Second)
			if err == nil && !healthy {
				return fmt.Errorf("typesense reports unhealthy")
			}
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the events collection exists. Only public events are
// stored, so the schema carries no visibility field.
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == EventsCollection {
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: EventsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "location", Type: "string", Optional: pointer.True()},
			{Name: "organizer_id", Type: "string", Facet: pointer.True()},
			{Name: "start_time", Type: "int64"},
			{Name: "end_time", Type: "int64"},
		},
		DefaultSortingField: pointer.String("start_time"),
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", EventsCollection).Msg("Created Typesense collection")
	return nil
}

// ResetCollection drops the events collection and recreates it
func (c *Client) ResetCollection(ctx context.Context) error {
	if _, err := c.client.Collection(EventsCollection).Delete(ctx); err != nil {
		log.Warn().Err(err).Str("collection", EventsCollection).Msg("Failed to delete collection, recreating anyway")
	}
	return c.InitSchema(ctx)
}
