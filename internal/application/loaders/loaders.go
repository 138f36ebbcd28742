// Package loaders batches per-request lookups of related rows.
package loaders

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the dataloaders for one request
type Loaders struct {
	ProfileLoader *dataloader.Loader[string, *entities.Profile]
}

// NewLoaders creates a new instance of Loaders reading from store
func NewLoaders(store repositories.Store) *Loaders {
	return &Loaders{
		ProfileLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Profile] {
			results := make([]*dataloader.Result[*entities.Profile], len(keys))
			profiles, err := store.Profiles().GetByIDs(ctx, keys)

			profileMap := make(map[string]*entities.Profile, len(profiles))
			if err == nil {
				for _, p := range profiles {
					profileMap[p.ID] = p
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Profile]{Error: err}
				} else if p, ok := profileMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Profile]{Data: p}
				} else {
					results[i] = &dataloader.Result[*entities.Profile]{Error: apperrors.NewNotFoundError("profile not found")}
				}
			}
			return results
		}),
	}
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// LoadProfiles resolves profiles for ids in one batch. Missing profiles are
// absent from the returned map.
func (l *Loaders) LoadProfiles(ctx context.Context, ids []string) (map[string]*entities.Profile, error) {
	out := make(map[string]*entities.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	profiles, errs := l.ProfileLoader.LoadMany(ctx, ids)()
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			if apperrors.IsType(errs[i], apperrors.ErrorTypeNotFound) {
				continue
			}
			return nil, errs[i]
		}
		if i < len(profiles) && profiles[i] != nil {
			out[id] = profiles[i]
		}
	}
	return out, nil
}
