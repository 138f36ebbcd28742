package middleware

import (
	"net/http"

	"github.com/zatekoja/eventhub/internal/application/loaders"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
)

// Loaders attaches fresh dataloaders to every request so batched lookups
// never outlive the request that made them
func Loaders(store repositories.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
