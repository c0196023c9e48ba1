package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lepinkainen/bmn/internal/enrichment"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/experiment"
	"github.com/lepinkainen/bmn/internal/prefetch"
	"github.com/lepinkainen/bmn/internal/tmdb"
	"github.com/lepinkainen/bmn/internal/tui"
)

// pickMovies is replaced in tests.
var pickMovies = tui.Pick

// SearchCmd searches TMDB and prefetches the picked movies
type SearchCmd struct {
	Query      string `arg:"" help:"Movie title to search for"`
	Page       int    `help:"Result page" default:"1"`
	MinVotes   int    `help:"Hide results with fewer votes" default:"0"`
	Adult      bool   `help:"Include adult titles"`
	NoPrefetch bool   `help:"Only pick movies, skip enrichment"`
	Draft      string `help:"Append picked movies to this YAML draft (created if missing)" type:"path"`
}

func (s *SearchCmd) Run(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	page, err := a.catalog.SearchMovies(ctx, s.Query, s.Page, s.Adult)
	if err != nil {
		return err
	}
	if len(page.Results) == 0 {
		fmt.Fprintf(stdout, "No movies found for %q\n", s.Query)
		return nil
	}

	picked, err := pickMovies(s.Query, page.Results, s.MinVotes)
	if err != nil {
		return fmt.Errorf("movie picker failed: %w", err)
	}
	if picked.Action != tui.ActionPicked || len(picked.Movies) == 0 {
		return bmnerrors.NewStopProcessingError("picker canceled")
	}

	for _, r := range picked.Movies {
		fmt.Fprintf(stdout, "%s [tmdb:%d]\n", displayTitle(r), r.ID)
		if s.NoPrefetch {
			continue
		}
		res := a.prefetch.Prefetch(ctx, enrichment.SelectionFromResult(r), logPrefetch)
		if res.Error != "" {
			slog.Warn("Prefetch failed", "title", r.Title, "error", res.Error)
		}
	}

	if s.Draft != "" {
		return appendToDraft(s.Draft, picked.Movies)
	}
	return nil
}

// appendToDraft adds movies to the draft at path, creating it if needed.
func appendToDraft(path string, movies []tmdb.SearchResult) error {
	draft, err := experiment.LoadDraft(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		draft = &experiment.Draft{}
	}

	added := 0
	for _, r := range movies {
		if draft.AddMovie(experiment.DraftMovie{TMDBID: r.ID, Title: r.Title, ReleaseDate: r.ReleaseDate}) {
			added++
		}
	}
	if err := draft.Save(path); err != nil {
		return err
	}
	slog.Info("Updated draft", "file", path, "added", added, "movies", len(draft.Movies))
	return nil
}

func displayTitle(r tmdb.SearchResult) string {
	if len(r.ReleaseDate) >= 4 {
		return fmt.Sprintf("%s (%s)", r.Title, r.ReleaseDate[:4])
	}
	return r.Title
}

func logPrefetch(p prefetch.Progress) {
	slog.Debug(p.Step, "movie", p.CurrentMovie, "progress", p.Progress, "total", p.Total, "status", p.Status)
}
