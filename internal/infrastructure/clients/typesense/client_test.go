//go:build integration

package typesense_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/adapters/search"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/eventhub/pkg/config"
)

func TestClient_Integration(t *testing.T) {
	url := os.Getenv("TEST_TYPESENSE_URL")
	if url == "" {
		t.Skip("Skipping integration test: TEST_TYPESENSE_URL not set")
	}
	apiKey := os.Getenv("TEST_TYPESENSE_API_KEY")
	if apiKey == "" {
		apiKey = "xyz"
	}

	ctx := context.Background()
	client, err := typesense.NewClient(ctx, &config.TypesenseConfig{URL: url, APIKey: apiKey})
	require.NoError(t, err)

	// Creating the schema twice is a no-op
	require.NoError(t, client.InitSchema(ctx))
	require.NoError(t, client.InitSchema(ctx))

	adapter := search.NewTypesenseAdapter(client)
	start := time.Now().UTC().Add(72 * time.Hour)
	public := &entities.Event{
		ID: uuid.NewString(), Title: "Harmattan Jazz Night", Description: "Live band", Location: "Lekki",
		OrganizerID: "alice", StartTime: start, EndTime: start.Add(3 * time.Hour), IsPublic: true,
	}
	private := &entities.Event{
		ID: uuid.NewString(), Title: "Harmattan Jazz Rehearsal", Description: "Band only", Location: "Lekki",
		OrganizerID: "alice", StartTime: start, EndTime: start.Add(time.Hour), IsPublic: false,
	}
	require.NoError(t, adapter.Index(ctx, public))
	require.NoError(t, adapter.Index(ctx, private))
	t.Cleanup(func() { _ = adapter.Remove(context.Background(), public.ID) })

	// Allow some time for indexing
	time.Sleep(500 * time.Millisecond)

	ids, err := adapter.SearchIDs(ctx, "harmattan jazz", 10)
	require.NoError(t, err)
	assert.Contains(t, ids, public.ID)
	assert.NotContains(t, ids, private.ID)

	require.NoError(t, adapter.Remove(ctx, public.ID))
	require.NoError(t, adapter.Remove(ctx, public.ID), "removing a missing document is not an error")
}
