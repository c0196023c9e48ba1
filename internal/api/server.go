// Package api exposes search, prefetch, experiment and platform operations
// over HTTP for the portal frontend.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/bmn/internal/enrichment"
	"github.com/lepinkainen/bmn/internal/experiment"
	"github.com/lepinkainen/bmn/internal/prefetch"
	"github.com/lepinkainen/bmn/internal/processor"
	"github.com/lepinkainen/bmn/internal/tmdb"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

// Catalog is the search side of the TMDB client.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, page int, includeAdult bool) (*tmdb.SearchPage, error)
	GetGenres(ctx context.Context) ([]tmdb.Genre, error)
}

// Prefetcher is the prefetch cache.
type Prefetcher interface {
	Prefetch(ctx context.Context, sel enrichment.Selection, progress prefetch.ProgressFunc) prefetch.EnrichedSelection
	IDs() []int
	Remove(id int)
	Clear()
}

// Experiments creates experiments from drafts and merges drafts onto saved ones.
type Experiments interface {
	Create(ctx context.Context, d *experiment.Draft, progress processor.ProgressFunc) (*wordpress.Experiment, error)
	Update(ctx context.Context, id int, d *experiment.Draft, progress processor.ProgressFunc) (*wordpress.Experiment, error)
}

// Site is the read, delete and discovery side of the WordPress client.
type Site interface {
	GetExperiment(ctx context.Context, id int) (*wordpress.Experiment, error)
	ListExperiments(ctx context.Context, page, perPage int) (*wordpress.ExperimentList, error)
	DeleteExperiment(ctx context.Context, id int) error
	DiscoverPlatforms(ctx context.Context) ([]wordpress.Platform, string)
}

// Server wires the handlers to their collaborators.
type Server struct {
	catalog      Catalog
	prefetcher   Prefetcher
	experiments  Experiments
	site         Site
	allowOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithAllowOrigins restricts CORS to origins. By default every origin is allowed.
func WithAllowOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowOrigins = origins
	}
}

// NewServer creates a server.
func NewServer(catalog Catalog, prefetcher Prefetcher, experiments Experiments, site Site, opts ...Option) *Server {
	s := &Server{
		catalog:     catalog,
		prefetcher:  prefetcher,
		experiments: experiments,
		site:        site,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(s.allowOrigins) > 0 {
		corsCfg.AllowOrigins = s.allowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AddAllowHeaders(requestIDHeader)
	corsCfg.AddExposeHeaders(requestIDHeader)
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/search", s.search)
		api.GET("/genres", s.genres)

		api.POST("/prefetch", s.prefetch)
		api.GET("/prefetch", s.prefetchedIDs)
		api.DELETE("/prefetch", s.clearPrefetch)
		api.DELETE("/prefetch/:id", s.removePrefetch)

		api.POST("/experiments", s.createExperiment)
		api.GET("/experiments", s.listExperiments)
		api.GET("/experiments/:id", s.getExperiment)
		api.PUT("/experiments/:id", s.updateExperiment)
		api.DELETE("/experiments/:id", s.deleteExperiment)

		api.GET("/platforms", s.platforms)
	}
	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
