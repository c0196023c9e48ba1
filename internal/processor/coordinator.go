// Package processor turns a list of picked movies into WordPress movies,
// one at a time.
package processor

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/lepinkainen/bmn/internal/datastore"
	"github.com/lepinkainen/bmn/internal/enrichment"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/materialize"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

// Status is the per-item state reported with processing progress.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
	StatusComplete   Status = "complete"
)

// Progress reports which selection is being handled. Current is 1-based.
type Progress struct {
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	CurrentMovie string `json:"currentMovie"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
}

// ProgressFunc receives processing updates. It may be nil.
type ProgressFunc func(Progress)

// Enricher produces snapshots.
type Enricher interface {
	Enrich(ctx context.Context, sel enrichment.Selection, progress enrichment.ProgressFunc) (*enrichment.Snapshot, error)
}

// Materializer persists snapshots.
type Materializer interface {
	Materialize(ctx context.Context, snap *enrichment.Snapshot, progress enrichment.ProgressFunc) (*materialize.Result, error)
}

// Snapshots returns prefetched snapshots, or nil when absent.
type Snapshots interface {
	Get(id int) *enrichment.Snapshot
}

// Movies reads movies back from the content system.
type Movies interface {
	GetMovie(ctx context.Context, id int) (*wordpress.Movie, error)
}

// Coordinator runs selections through lookup, enrichment and materialization.
type Coordinator struct {
	finder       materialize.Finder
	snapshots    Snapshots
	enricher     Enricher
	materializer Materializer
	movies       Movies
	ledger       datastore.Ledger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFinder sets how existing movies are detected. The default never finds any.
func WithFinder(f materialize.Finder) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.finder = f
		}
	}
}

// WithSnapshots lets the coordinator reuse prefetched snapshots.
func WithSnapshots(s Snapshots) Option {
	return func(c *Coordinator) {
		c.snapshots = s
	}
}

// WithLedger records every materialized movie in l.
func WithLedger(l datastore.Ledger) Option {
	return func(c *Coordinator) {
		c.ledger = l
	}
}

// New creates a coordinator.
func New(enricher Enricher, materializer Materializer, movies Movies, opts ...Option) *Coordinator {
	c := &Coordinator{
		finder:       materialize.NoopFinder{},
		enricher:     enricher,
		materializer: materializer,
		movies:       movies,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessAll handles selections sequentially and returns the movies that
// made it, in input order. A failing selection is logged, reported with
// StatusError and skipped. A final StatusComplete update always fires.
func (c *Coordinator) ProcessAll(ctx context.Context, selections []enrichment.Selection, progress ProgressFunc) []wordpress.Movie {
	runID := uuid.NewString()
	log := slog.With("run_id", runID)
	total := len(selections)

	report := func(p Progress) {
		if progress != nil {
			progress(p)
		}
	}

	movies := make([]wordpress.Movie, 0, total)
	for i, sel := range selections {
		report(Progress{Current: i + 1, Total: total, CurrentMovie: sel.Title, Status: StatusProcessing})

		movie, err := c.process(ctx, runID, sel)
		if bmnerrors.IsStopProcessingError(err) {
			log.Info("Skipping movie, processing stopped", "title", sel.Title, "tmdb_id", sel.TMDBID)
			report(Progress{Current: i + 1, Total: total, CurrentMovie: sel.Title, Status: StatusError, Error: err.Error()})
			continue
		}
		if err != nil {
			log.Error("Failed to process movie", "title", sel.Title, "tmdb_id", sel.TMDBID, "error", err)
			report(Progress{Current: i + 1, Total: total, CurrentMovie: sel.Title, Status: StatusError, Error: err.Error()})
			continue
		}
		movies = append(movies, *movie)
	}

	log.Info("Processed movies", "processed", len(movies), "total", total)
	report(Progress{Current: total, Total: total, CurrentMovie: "Complete", Status: StatusComplete})
	return movies
}

func (c *Coordinator) process(ctx context.Context, runID string, sel enrichment.Selection) (*wordpress.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, bmnerrors.StoppedBy("processing stopped", err)
	}

	id, found, err := c.finder.FindExisting(ctx, materialize.KindMovie, strconv.Itoa(sel.TMDBID), sel.Title)
	if err != nil {
		slog.Warn("Existing movie lookup failed", "title", sel.Title, "error", err)
	} else if found {
		slog.Info("Movie already exists", "title", sel.Title, "movie_id", id)
		return c.movies.GetMovie(ctx, id)
	}

	var snap *enrichment.Snapshot
	if c.snapshots != nil {
		snap = c.snapshots.Get(sel.TMDBID)
	}
	if snap == nil {
		snap, err = c.enricher.Enrich(ctx, sel, nil)
		if err != nil {
			return nil, err
		}
	}

	result, err := c.materializer.Materialize(ctx, snap, nil)
	if err != nil {
		return nil, err
	}

	c.record(ctx, runID, sel, result)
	return c.movies.GetMovie(ctx, result.MovieID)
}

// record failures are logged only; the movie already exists at this point.
func (c *Coordinator) record(ctx context.Context, runID string, sel enrichment.Selection, result *materialize.Result) {
	if c.ledger == nil {
		return
	}

	created := result.Created
	err := c.ledger.Record(ctx, datastore.Entry{
		RunID:     runID,
		TMDBID:    sel.TMDBID,
		MovieID:   result.MovieID,
		Title:     sel.Title,
		Actors:    created.Actors,
		Directors: created.Directors,
		Writers:   created.Writers,
		Genres:    created.Genres,
		Studios:   created.Studios,
		Countries: created.Countries,
		Languages: created.Languages,
	})
	if err != nil {
		slog.Warn("Failed to record materialized movie", "title", sel.Title, "error", err)
	}
}
