package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lepinkainen/bmn/internal/enrichment"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/processor"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

// Site is the part of the WordPress client experiments are saved through.
type Site interface {
	NextExperimentNumber(ctx context.Context) int
	CurrentUser(ctx context.Context) (*wordpress.User, error)
	UploadImage(ctx context.Context, data []byte, filename string) (*wordpress.ProcessedImage, error)
	SaveExperiment(ctx context.Context, exp *wordpress.Experiment) (*wordpress.Experiment, error)
	GetExperiment(ctx context.Context, id int) (*wordpress.Experiment, error)
}

// Processor turns selections into movie posts.
type Processor interface {
	ProcessAll(ctx context.Context, selections []enrichment.Selection, progress processor.ProgressFunc) []wordpress.Movie
}

// Service creates and edits experiments.
type Service struct {
	site      Site
	processor Processor
}

// NewService creates a service saving to site and processing movies with p.
func NewService(site Site, p Processor) *Service {
	return &Service{site: site, processor: p}
}

// Create processes the draft's movies and saves the experiment with the
// movies that succeeded. Movie failures are reported through progress and
// do not fail the experiment; a failed poster upload does not either.
func (s *Service) Create(ctx context.Context, d *Draft, progress processor.ProgressFunc) (*wordpress.Experiment, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	exp := &wordpress.Experiment{
		Number:    d.Number,
		Title:     d.Title,
		Date:      d.Date,
		HostID:    d.HostID,
		Notes:     d.Notes,
		Platforms: wordpress.MapPlatformNames(d.Platforms),
	}
	if exp.Number <= 0 {
		exp.Number = s.site.NextExperimentNumber(ctx)
	}
	if exp.HostID == 0 {
		if user, err := s.site.CurrentUser(ctx); err != nil {
			slog.Warn("Failed to load current user as host", "error", err)
		} else {
			exp.HostID = user.ID
		}
	}

	exp.Movies = s.processor.ProcessAll(ctx, d.Selections(), progress)
	if err := ctx.Err(); err != nil {
		return nil, bmnerrors.StoppedBy("experiment creation interrupted", err)
	}

	if d.Poster != "" {
		exp.PosterImageID = s.uploadPoster(ctx, d.Poster, exp.Number)
	}

	return s.save(ctx, exp)
}

// Update merges d onto the saved experiment id. Set fields of the draft
// replace the stored ones, movies listed in RemoveMovies are dropped and
// draft movies not already on the experiment are processed and appended.
// A draft poster replaces the stored image.
func (s *Service) Update(ctx context.Context, id int, d *Draft, progress processor.ProgressFunc) (*wordpress.Experiment, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	exp, err := s.site.GetExperiment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment %d: %w", id, err)
	}
	exp.ID = id
	mergeDraft(exp, d)

	removed := make(map[int]bool, len(d.RemoveMovies))
	for _, movieID := range d.RemoveMovies {
		removed[movieID] = true
	}
	present := make(map[int]bool, len(exp.Movies))
	kept := make([]wordpress.Movie, 0, len(exp.Movies))
	for _, m := range exp.Movies {
		if removed[m.ID] {
			continue
		}
		kept = append(kept, m)
		if m.TMDBID > 0 {
			present[m.TMDBID] = true
		}
	}

	var added []enrichment.Selection
	for _, sel := range d.Selections() {
		if !present[sel.TMDBID] {
			present[sel.TMDBID] = true
			added = append(added, sel)
		}
	}
	if len(added) > 0 {
		kept = append(kept, s.processor.ProcessAll(ctx, added, progress)...)
		if err := ctx.Err(); err != nil {
			return nil, bmnerrors.StoppedBy("experiment update interrupted", err)
		}
	}
	exp.Movies = kept

	if d.Poster != "" {
		if imageID := s.uploadPoster(ctx, d.Poster, exp.Number); imageID > 0 {
			exp.PosterImageID = imageID
		}
	}

	return s.save(ctx, exp)
}

func (s *Service) save(ctx context.Context, exp *wordpress.Experiment) (*wordpress.Experiment, error) {
	saved, err := s.site.SaveExperiment(ctx, exp)
	if err != nil {
		return nil, fmt.Errorf("failed to save experiment %s: %w", wordpress.FormatExperimentNumber(exp.Number), err)
	}
	// Pods does not always echo relationship fields back.
	if len(saved.Movies) == 0 && len(exp.Movies) > 0 {
		saved.Movies = exp.Movies
	}
	slog.Info("Saved experiment", "id", saved.ID, "number", exp.Number, "movies", len(exp.Movies))
	return saved, nil
}

// mergeDraft copies the fields d sets onto exp.
func mergeDraft(exp *wordpress.Experiment, d *Draft) {
	if d.Number > 0 {
		exp.Number = d.Number
	}
	if d.Title != "" {
		exp.Title = d.Title
	}
	if d.Date != "" {
		exp.Date = d.Date
	}
	if d.HostID > 0 {
		exp.HostID = d.HostID
	}
	if d.Notes != "" {
		exp.Notes = d.Notes
	}
	if d.Platforms != nil {
		exp.Platforms = wordpress.MapPlatformNames(d.Platforms)
	}
}

func (s *Service) uploadPoster(ctx context.Context, path string, number int) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read experiment poster", "path", path, "error", err)
		return 0
	}

	filename := fmt.Sprintf("experiment-%s%s", wordpress.FormatExperimentNumber(number), filepath.Ext(path))
	img, err := s.site.UploadImage(ctx, data, filename)
	if err != nil {
		slog.Warn("Failed to upload experiment poster", "path", path, "error", err)
		return 0
	}
	return img.ID
}
