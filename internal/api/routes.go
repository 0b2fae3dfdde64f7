package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Webhooks (public, secret-authenticated)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/members", s.HandleMemberSync)
		r.Post("/outreach", s.HandleOutreachEvent)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Runs
		r.Route("/runs", func(r chi.Router) {
			r.Post("/create", s.HandleCreateRun)
			r.Get("/", s.HandleListRuns)
			r.Get("/{id}", s.HandleGetRun)
		})

		// Job claims
		r.Route("/claims", func(r chi.Router) {
			r.Post("/create", s.HandleCreateClaim)
			r.Get("/{org_id}", s.HandleListClaims)
			r.Delete("/{org_id}/{claim_id}", s.HandleDeleteClaim)
		})

		// Warmup introspection
		r.Get("/warmup/{org_id}", s.HandleGetWarmup)

		// Usage
		r.Get("/usage", s.HandleGetUsage)

		// Blacklist
		r.Route("/blacklist", func(r chi.Router) {
			r.Get("/", s.HandleListBlacklist)
			r.Post("/", s.HandleCreateBlacklistEntry)
			r.Delete("/{id}", s.HandleDeleteBlacklistEntry)
		})
	})
}
