// Package materialize turns an enrichment snapshot into WordPress posts:
// one per person, genre, studio, country and language, and finally the
// movie wired to all of them by ID.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lepinkainen/bmn/internal/affiliate"
	"github.com/lepinkainen/bmn/internal/enrichment"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

// TotalStages is the number of materialization stages.
const TotalStages = 8

// Stage labels, in order.
const (
	StageActors    = "Creating actor entities..."
	StageDirectors = "Creating director entities..."
	StageWriters   = "Creating writer entities..."
	StageGenres    = "Creating genre entities..."
	StageStudios   = "Creating studio entities..."
	StageCountries = "Creating country entities..."
	StageLanguages = "Creating language entities..."
	StageMovie     = "Creating movie entity with relationships..."
	StageComplete  = "All entities created successfully!"
)

const (
	tmdbPersonURL = "https://www.themoviedb.org/person/%d"
	tmdbMovieURL  = "https://www.themoviedb.org/movie/%d"
	imdbTitleURL  = "https://www.imdb.com/title/%s"
)

// ContentSystem is the subset of the WordPress client the engine writes through.
type ContentSystem interface {
	CreatePost(ctx context.Context, postType string, in wordpress.PostInput) (*wordpress.Post, error)
	UploadImageFromURL(ctx context.Context, imageURL, filename string) (*wordpress.ProcessedImage, error)
}

// ImageResolver builds catalog image URLs.
type ImageResolver interface {
	ImageURL(path, size string) string
}

// CreatedEntities holds the post IDs per category, in snapshot order.
// Entities whose creation failed are absent.
type CreatedEntities struct {
	Actors    []int `json:"actors"`
	Directors []int `json:"directors"`
	Writers   []int `json:"writers"`
	Genres    []int `json:"genres"`
	Studios   []int `json:"studios"`
	Countries []int `json:"countries"`
	Languages []int `json:"languages"`
}

// Result is the outcome of one materialization.
type Result struct {
	MovieID int             `json:"movieId"`
	Created CreatedEntities `json:"createdEntities"`
}

// Engine materializes snapshots. It keeps no state between calls.
type Engine struct {
	content ContentSystem
	images  ImageResolver
	finder  Finder
	linker  *affiliate.Linker
}

// Option configures an Engine.
type Option func(*Engine)

// WithFinder sets how existing entities are detected. The default never finds any.
func WithFinder(f Finder) Option {
	return func(e *Engine) {
		if f != nil {
			e.finder = f
		}
	}
}

// WithAffiliateLinker sets the linker used for the movie's Amazon link.
func WithAffiliateLinker(l *affiliate.Linker) Option {
	return func(e *Engine) {
		e.linker = l
	}
}

// NewEngine creates an engine writing to content and resolving images through images.
func NewEngine(content ContentSystem, images ImageResolver, opts ...Option) *Engine {
	e := &Engine{
		content: content,
		images:  images,
		finder:  NoopFinder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// entity is one post to find or create.
type entity struct {
	kind       Kind
	externalID string
	name       string
	fields     map[string]any
	imageURL   string
	imageFile  string
	imageField string
}

// Materialize creates every related entity of snap and then the movie.
// Failures of single entities and image uploads are logged and skipped;
// only a failed movie creation is returned, as *errors.MaterializationError.
func (e *Engine) Materialize(ctx context.Context, snap *enrichment.Snapshot, progress enrichment.ProgressFunc) (*Result, error) {
	if snap == nil || snap.Movie == nil {
		return nil, bmnerrors.NewMaterializationError("", fmt.Errorf("snapshot has no movie"))
	}
	title := snap.Movie.Title

	report := func(stage int, label string) {
		if progress != nil {
			progress(enrichment.Progress{Step: label, Progress: stage, Total: TotalStages})
		}
	}

	var created CreatedEntities
	stages := []struct {
		label    string
		entities []entity
		out      *[]int
	}{
		{StageActors, people(KindActor, snap.Actors), &created.Actors},
		{StageDirectors, people(KindDirector, snap.Directors), &created.Directors},
		{StageWriters, people(KindWriter, snap.Writers), &created.Writers},
		{StageGenres, genres(snap.Genres), &created.Genres},
		{StageStudios, e.studios(snap.Studios), &created.Studios},
		{StageCountries, countries(snap.Countries), &created.Countries},
		{StageLanguages, languages(snap.Languages), &created.Languages},
	}

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, bmnerrors.NewMaterializationError(title, err)
		}
		report(i+1, stage.label)
		*stage.out = e.createAll(ctx, stage.entities)
	}

	if err := ctx.Err(); err != nil {
		return nil, bmnerrors.NewMaterializationError(title, err)
	}
	report(TotalStages, StageMovie)
	movieID, err := e.createMovie(ctx, snap, created)
	if err != nil {
		return nil, bmnerrors.NewMaterializationError(title, err)
	}

	report(TotalStages, StageComplete)
	slog.Info("Materialized movie", "title", title, "movie_id", movieID)
	return &Result{MovieID: movieID, Created: created}, nil
}

// createAll keeps the order of entities; failed ones are left out.
func (e *Engine) createAll(ctx context.Context, entities []entity) []int {
	ids := make([]int, 0, len(entities))
	for _, ent := range entities {
		if id, ok := e.findOrCreate(ctx, ent); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *Engine) findOrCreate(ctx context.Context, ent entity) (int, bool) {
	id, found, err := e.finder.FindExisting(ctx, ent.kind, ent.externalID, ent.name)
	if err != nil {
		slog.Warn("Existing entity lookup failed", "kind", ent.kind, "name", ent.name, "error", err)
	} else if found {
		return id, true
	}

	fields := ent.fields
	if ent.imageURL != "" {
		if img := e.upload(ctx, ent.imageURL, ent.imageFile); img != nil {
			fields[ent.imageField] = img.ID
		}
	}

	post, err := e.content.CreatePost(ctx, ent.kind.PostType(), wordpress.PostInput{
		Title:  ent.name,
		Status: wordpress.StatusPublish,
		Fields: fields,
	})
	if err != nil {
		slog.Warn("Failed to create entity", "kind", ent.kind, "name", ent.name, "error", err)
		return 0, false
	}
	return post.ID, true
}

// upload returns nil when the upload fails.
func (e *Engine) upload(ctx context.Context, imageURL, filename string) *wordpress.ProcessedImage {
	img, err := e.content.UploadImageFromURL(ctx, imageURL, filename)
	if err != nil {
		slog.Warn("Failed to upload image", "file", filename, "error", err)
		return nil
	}
	return img
}

type personFields struct {
	Name         string `wp:"name"`
	Biography    string `wp:"biography"`
	Birthday     string `wp:"birthday"`
	Deathday     string `wp:"deathday"`
	PlaceOfBirth string `wp:"place_of_birth"`
	TMDBID       string `wp:"tmdb_id"`
	TMDBURL      string `wp:"tmdb_url"`
}

func people(kind Kind, people []enrichment.Person) []entity {
	out := make([]entity, 0, len(people))
	for _, p := range people {
		fields := prefixed(string(kind)+"_", wordpress.FieldsOf(personFields{
			Name:         p.Name,
			Biography:    p.Biography,
			Birthday:     p.Birthday,
			Deathday:     p.Deathday,
			PlaceOfBirth: p.PlaceOfBirth,
			TMDBID:       strconv.Itoa(p.TMDBID),
			TMDBURL:      fmt.Sprintf(tmdbPersonURL, p.TMDBID),
		}))
		out = append(out, entity{
			kind:       kind,
			externalID: strconv.Itoa(p.TMDBID),
			name:       p.Name,
			fields:     fields,
			imageURL:   p.ProfileImageURL,
			imageFile:  fmt.Sprintf("%s-%d-profile.jpg", kind, p.TMDBID),
			imageField: "profile_image",
		})
	}
	return out
}

type genreFields struct {
	Name   string `wp:"genre_name"`
	TMDBID string `wp:"genre_tmdb_id"`
}

func genres(genres []enrichment.Genre) []entity {
	out := make([]entity, 0, len(genres))
	for _, g := range genres {
		id := strconv.Itoa(g.TMDBID)
		out = append(out, entity{
			kind:       KindGenre,
			externalID: id,
			name:       g.Name,
			fields:     wordpress.FieldsOf(genreFields{Name: g.Name, TMDBID: id}),
		})
	}
	return out
}

type studioFields struct {
	Name          string `wp:"studio_name"`
	TMDBID        string `wp:"studio_tmdb_id"`
	OriginCountry string `wp:"studio_origin_country"`
}

func (e *Engine) studios(studios []enrichment.Studio) []entity {
	out := make([]entity, 0, len(studios))
	for _, s := range studios {
		id := strconv.Itoa(s.TMDBID)
		out = append(out, entity{
			kind:       KindStudio,
			externalID: id,
			name:       s.Name,
			fields:     wordpress.FieldsOf(studioFields{Name: s.Name, TMDBID: id, OriginCountry: s.OriginCountry}),
			imageURL:   e.images.ImageURL(s.LogoPath, "w300"),
			imageFile:  fmt.Sprintf("studio-%d-logo.png", s.TMDBID),
			imageField: "studio_logo",
		})
	}
	return out
}

type countryFields struct {
	Name    string `wp:"country_name"`
	ISOCode string `wp:"country_iso_code"`
}

func countries(countries []enrichment.Country) []entity {
	out := make([]entity, 0, len(countries))
	for _, c := range countries {
		out = append(out, entity{
			kind:       KindCountry,
			externalID: c.ISOCode,
			name:       c.Name,
			fields:     wordpress.FieldsOf(countryFields{Name: c.Name, ISOCode: c.ISOCode}),
		})
	}
	return out
}

type languageFields struct {
	Name        string `wp:"language_name"`
	EnglishName string `wp:"language_english_name"`
	ISOCode     string `wp:"language_iso_code"`
}

// languages are titled by their English name.
func languages(languages []enrichment.Language) []entity {
	out := make([]entity, 0, len(languages))
	for _, l := range languages {
		title := l.EnglishName
		if title == "" {
			title = l.Name
		}
		out = append(out, entity{
			kind:       KindLanguage,
			externalID: l.ISOCode,
			name:       title,
			fields:     wordpress.FieldsOf(languageFields{Name: l.Name, EnglishName: l.EnglishName, ISOCode: l.ISOCode}),
		})
	}
	return out
}

func prefixed(prefix string, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[prefix+k] = v
	}
	return out
}
