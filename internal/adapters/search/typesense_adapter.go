package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	tsclient "github.com/zatekoja/eventhub/internal/infrastructure/clients/typesense"
)

const (
	queryBy        = "title,description,location"
	defaultPerPage = 50
	maxPerPage     = 250
)

// TypesenseAdapter indexes public events in Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
	now    func() time.Time
	search func(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error)
}

var _ providers.EventSearchProvider = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	a := &TypesenseAdapter{client: client, now: time.Now}
	a.search = func(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error) {
		return a.client.Client().Collection(tsclient.EventsCollection).Documents().Search(ctx, params)
	}
	return a
}

// Index upserts a public event. Private events are removed instead so they
// can never surface in search results.
func (a *TypesenseAdapter) Index(ctx context.Context, event *entities.Event) error {
	if !event.IsPublic {
		return a.Remove(ctx, event.ID)
	}

	_, err := a.client.Client().Collection(tsclient.EventsCollection).Documents().Upsert(ctx, buildEventDocument(event))
	if err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	return nil
}

// Remove deletes an event from the index
func (a *TypesenseAdapter) Remove(ctx context.Context, eventID string) error {
	_, err := a.client.Client().Collection(tsclient.EventsCollection).Document(eventID).Delete(ctx)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove event from index: %w", err)
	}
	return nil
}

// SearchIDs returns up to limit IDs of upcoming indexed events matching text,
// ordered by start time. Limits above one Typesense page are fetched page by page.
func (a *TypesenseAdapter) SearchIDs(ctx context.Context, text string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultPerPage
	}
	perPage := min(limit, maxPerPage)
	now := a.now()

	ids := []string{}
	for page := 1; len(ids) < limit; page++ {
		result, err := a.search(ctx, buildSearchParams(text, perPage, page, now))
		if err != nil {
			return nil, fmt.Errorf("failed to search events: %w", err)
		}
		if result.Hits == nil {
			break
		}
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			if id, ok := (*hit.Document)["id"].(string); ok {
				ids = append(ids, id)
			}
		}
		if len(*result.Hits) < perPage {
			break
		}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func buildEventDocument(event *entities.Event) map[string]interface{} {
	return map[string]interface{}{
		"id":           event.ID,
		"title":        event.Title,
		"description":  event.Description,
		"location":     event.Location,
		"organizer_id": event.OrganizerID,
		"start_time":   event.StartTime.Unix(),
		"end_time":     event.EndTime.Unix(),
	}
}

func buildSearchParams(text string, perPage, page int, now time.Time) *api.SearchCollectionParams {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return &api.SearchCollectionParams{
		Q:        pointer.String(text),
		QueryBy:  pointer.String(queryBy),
		FilterBy: pointer.String(fmt.Sprintf("start_time:>=%d", now.Unix())),
		SortBy:   pointer.String("start_time:asc"),
		PerPage:  pointer.Int(perPage),
		Page:     pointer.Int(max(page, 1)),
	}
}

// isNotFound reports a 404 from the Typesense API
func isNotFound(err error) bool {
	var httpErr *typesense.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}
