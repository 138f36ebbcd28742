package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typesense/typesense-go/v2/typesense/api"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

func TestBuildEventDocument(t *testing.T) {
	start := time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC)
	event := &entities.Event{
		ID:          "ev-1",
		Title:       "Rooftop Jazz",
		Description: "Live quartet",
		Location:    "Pier 9",
		OrganizerID: "org-1",
		StartTime:   start,
		EndTime:     start.Add(3 * time.Hour),
		IsPublic:    true,
	}

	doc := buildEventDocument(event)

	assert.Equal(t, "ev-1", doc["id"])
	assert.Equal(t, "Rooftop Jazz", doc["title"])
	assert.Equal(t, start.Unix(), doc["start_time"])
	assert.Equal(t, start.Add(3*time.Hour).Unix(), doc["end_time"])
	assert.NotContains(t, doc, "is_public")
}

func TestBuildSearchParams(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	params := buildSearchParams("jazz", 0, 0, now)
	assert.Equal(t, "jazz", *params.Q)
	assert.Equal(t, queryBy, *params.QueryBy)
	assert.Equal(t, "start_time:>=1782864000", *params.FilterBy)
	assert.Equal(t, "start_time:asc", *params.SortBy)
	assert.Equal(t, defaultPerPage, *params.PerPage)
	assert.Equal(t, 1, *params.Page)

	assert.Equal(t, maxPerPage, *buildSearchParams("jazz", 10000, 3, now).PerPage)
	assert.Equal(t, 3, *buildSearchParams("jazz", 10, 3, now).Page)
}

// fakeIndex serves total matching hits in start-time order
func fakeIndex(total int, pages *[]int) func(context.Context, *api.SearchCollectionParams) (*api.SearchResult, error) {
	return func(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error) {
		*pages = append(*pages, *params.Page)
		start := (*params.Page - 1) * *params.PerPage
		hits := []api.SearchResultHit{}
		for i := start; i < total && i < start+*params.PerPage; i++ {
			doc := map[string]interface{}{"id": fmt.Sprintf("ev-%04d", i)}
			hits = append(hits, api.SearchResultHit{Document: &doc})
		}
		return &api.SearchResult{Hits: &hits}, nil
	}
}

func TestSearchIDs_PagesPastOneTypesensePage(t *testing.T) {
	var pages []int
	a := &TypesenseAdapter{now: time.Now}
	a.search = fakeIndex(600, &pages)

	ids, err := a.SearchIDs(context.Background(), "board", 450)
	require.NoError(t, err)
	require.Len(t, ids, 450)
	assert.Equal(t, "ev-0000", ids[0])
	assert.Equal(t, "ev-0449", ids[449])
	assert.Equal(t, []int{1, 2}, pages)
}

func TestSearchIDs_StopsWhenHitsRunOut(t *testing.T) {
	var pages []int
	a := &TypesenseAdapter{now: time.Now}
	a.search = fakeIndex(260, &pages)

	ids, err := a.SearchIDs(context.Background(), "board", 900)
	require.NoError(t, err)
	assert.Len(t, ids, 260)
	assert.Equal(t, []int{1, 2}, pages)
}
