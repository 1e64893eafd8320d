// Package api serves the dashboard reports as JSON over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"house-flipping/geo"
	"house-flipping/services"
	"house-flipping/utils"
)

// SnapshotSource provides the data the handlers read.
type SnapshotSource interface {
	Current() *services.Snapshot
	Boundaries(ctx context.Context) (*geo.Boundaries, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	logger     *utils.Logger
	source     SnapshotSource
	aggregator *services.Aggregator
	selector   *services.OpportunitySelector
	metrics    *Metrics
	mapSample  int
}

// NewServer creates a Server. mapSample is the number of sales the map
// layers are computed over.
func NewServer(logger *utils.Logger, source SnapshotSource, metrics *Metrics, mapSample int) *Server {
	agg := services.NewAggregator(logger)
	return &Server{
		logger:     logger,
		source:     source,
		aggregator: agg,
		selector:   services.NewOpportunitySelector(logger, agg),
		metrics:    metrics,
		mapSample:  mapSample,
	}
}

// Router builds the chi router with every endpoint mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/overview", s.handleOverview)
		r.Get("/zipcodes", s.handleZipcodes)
		r.Get("/stats", s.handleStats)

		r.Route("/price", func(r chi.Router) {
			r.Get("/yr-built", s.handlePriceByYearBuilt)
			r.Get("/season", s.handlePriceBySeason)
			r.Get("/age", s.handlePriceByAge)
			r.Get("/basement", s.handlePriceByBasement)
			r.Get("/waterfront", s.handlePriceByWaterfront)
			r.Get("/daily", s.handleDailyPrice)
			r.Get("/distribution", s.handlePriceDistribution)
		})

		r.Get("/attributes/{column}/counts", s.handleAttributeCounts)
		r.Get("/opportunities", s.handleOpportunities)

		r.Route("/map", func(r chi.Router) {
			r.Get("/markers", s.handleMarkers)
			r.Get("/density", s.handleDensity)
		})
	})
	return r
}

func (s *Server) snapshot() (*services.Snapshot, error) {
	snap := s.source.Current()
	if snap == nil {
		return nil, errNoSnapshot
	}
	return snap, nil
}
