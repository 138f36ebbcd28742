package routes

import (
	"net/http"

	"github.com/zatekoja/eventhub/internal/api/handlers"
	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	profileHandler *handlers.ProfileHandler
	eventHandler   *handlers.EventHandler
	rsvpHandler    *handlers.RSVPHandler
	reviewHandler  *handlers.ReviewHandler
	statsHandler   *handlers.StatsHandler
	sseHandler     *handlers.SSEHandler

	store          repositories.Store
	verifier       *middleware.IdentityVerifier
	internalToken  string
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Handlers groups the request handlers mounted by the router
type Handlers struct {
	Profiles *handlers.ProfileHandler
	Events   *handlers.EventHandler
	RSVPs    *handlers.RSVPHandler
	Reviews  *handlers.ReviewHandler
	Stats    *handlers.StatsHandler
	Stream   *handlers.SSEHandler
}

// Options configures the middleware chain
type Options struct {
	Store          repositories.Store
	Verifier       *middleware.IdentityVerifier
	InternalToken  string
	AllowedOrigins []string
	Metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(h Handlers, opts Options) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		profileHandler: h.Profiles,
		eventHandler:   h.Events,
		rsvpHandler:    h.RSVPs,
		reviewHandler:  h.Reviews,
		statsHandler:   h.Stats,
		sseHandler:     h.Stream,
		store:          opts.Store,
		verifier:       opts.Verifier,
		internalToken:  opts.InternalToken,
		allowedOrigins: opts.AllowedOrigins,
		metrics:        opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Identity and profile endpoints
	r.mux.HandleFunc("POST /api/identities/register", r.profileHandler.Register)
	r.mux.HandleFunc("GET /api/profiles/{id}", r.profileHandler.GetProfile)
	r.mux.HandleFunc("PATCH /api/profiles/me", r.profileHandler.UpdateMe)
	r.mux.Handle("DELETE /internal/identities/{id}",
		middleware.InternalOnly(r.internalToken)(http.HandlerFunc(r.profileHandler.RemoveIdentity)))

	// Event endpoints
	r.mux.HandleFunc("POST /api/events", r.eventHandler.CreateEvent)
	r.mux.HandleFunc("GET /api/events", r.eventHandler.ListEvents)
	r.mux.HandleFunc("GET /api/events/{id}", r.eventHandler.GetEvent)
	r.mux.HandleFunc("PATCH /api/events/{id}", r.eventHandler.UpdateEvent)
	r.mux.HandleFunc("DELETE /api/events/{id}", r.eventHandler.DeleteEvent)

	// RSVP endpoints
	r.mux.HandleFunc("PUT /api/events/{id}/rsvp", r.rsvpHandler.UpsertRSVP)
	r.mux.HandleFunc("DELETE /api/events/{id}/rsvp", r.rsvpHandler.DeleteRSVP)

	// Review endpoints
	r.mux.HandleFunc("POST /api/events/{id}/reviews", r.reviewHandler.SubmitReview)
	r.mux.HandleFunc("PATCH /api/reviews/{id}", r.reviewHandler.UpdateReview)
	r.mux.HandleFunc("DELETE /api/reviews/{id}", r.reviewHandler.DeleteReview)

	// Aggregates
	r.mux.HandleFunc("GET /api/events/{id}/attendance", r.statsHandler.GetAttendance)
	r.mux.HandleFunc("GET /api/events/{id}/rating", r.statsHandler.GetRating)
	r.mux.HandleFunc("GET /api/stats/trends", r.statsHandler.GetTrends)

	// Live activity
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/events/{id}/stream", r.sseHandler.StreamEventActivity)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// Observability sits directly on the mux so the matched pattern is
	// visible after the request is served.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	if r.store != nil {
		handler = middleware.Loaders(r.store)(handler)
	}
	handler = middleware.Identity(r.verifier)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight replies skip authentication
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
