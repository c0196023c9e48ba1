// Package enrichment assembles the full relational snapshot of a movie
// from the catalog: details, cast, crew, genres, studios, countries and
// languages.
package enrichment

import (
	"context"
	"log/slog"
	"slices"

	"github.com/lepinkainen/bmn/internal/config"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
	"github.com/lepinkainen/bmn/internal/tmdb"
)

// TotalStages is the number of enrichment stages.
const TotalStages = 8

// Stage labels, in order.
const (
	StageDetails   = "Fetching movie details..."
	StageCredits   = "Fetching movie credits..."
	StageActors    = "Enriching actor profiles..."
	StageCrew      = "Enriching crew profiles..."
	StageGenres    = "Processing genres..."
	StageStudios   = "Processing studios..."
	StageCountries = "Processing countries..."
	StageLanguages = "Processing languages..."
	StageComplete  = "Enrichment complete!"
)

// Catalog is the subset of the TMDB client the engine needs.
type Catalog interface {
	GetMovieDetails(ctx context.Context, movieID int) (*tmdb.MovieDetails, error)
	GetMovieCredits(ctx context.Context, movieID int) (*tmdb.Credits, error)
	GetPersonDetails(ctx context.Context, personID int) (*tmdb.Person, error)
	ImageURL(path, size string) string
}

// Policy holds the selection rules for cast and crew. A CastLimit of zero
// keeps the whole cast.
type Policy struct {
	CastLimit        int
	WriterJobs       []string
	DirectorJobs     []string
	ProfileImageSize string
}

// DefaultPolicy keeps the top 10 billed actors and treats Writer, Screenplay
// and Story credits as writers.
func DefaultPolicy() Policy {
	return Policy{
		CastLimit:        config.DefaultCastLimit,
		WriterJobs:       slices.Clone(config.DefaultWriterJobs),
		DirectorJobs:     slices.Clone(config.DefaultDirectorJobs),
		ProfileImageSize: "w300",
	}
}

// PolicyFromConfig overlays configured values on the defaults.
func PolicyFromConfig(cfg config.EnrichmentConfig) Policy {
	p := DefaultPolicy()
	if cfg.CastLimit > 0 {
		p.CastLimit = cfg.CastLimit
	}
	if len(cfg.WriterJobs) > 0 {
		p.WriterJobs = cfg.WriterJobs
	}
	if len(cfg.DirectorJobs) > 0 {
		p.DirectorJobs = cfg.DirectorJobs
	}
	return p
}

// Engine enriches movie selections. It holds no per-call state.
type Engine struct {
	catalog Catalog
	policy  Policy
}

// NewEngine creates an engine over catalog.
func NewEngine(catalog Catalog, policy Policy) *Engine {
	return &Engine{catalog: catalog, policy: policy}
}

// Enrich runs the eight stages for sel. Only the details and credits
// fetches are fatal; they come back as *errors.EnrichmentError. Person
// profile failures degrade to the data already known from the credits.
func (e *Engine) Enrich(ctx context.Context, sel Selection, progress ProgressFunc) (*Snapshot, error) {
	report := func(stage int, label string) {
		if progress != nil {
			progress(Progress{Step: label, Progress: stage, Total: TotalStages})
		}
	}

	report(1, StageDetails)
	details, err := e.catalog.GetMovieDetails(ctx, sel.TMDBID)
	if err != nil {
		return nil, bmnerrors.NewEnrichmentError(sel.TMDBID, err)
	}

	report(2, StageCredits)
	credits := details.Credits
	if credits == nil {
		credits, err = e.catalog.GetMovieCredits(ctx, sel.TMDBID)
		if err != nil {
			return nil, bmnerrors.NewEnrichmentError(sel.TMDBID, err)
		}
	}

	snap := &Snapshot{Movie: details}

	if err := ctx.Err(); err != nil {
		return nil, bmnerrors.NewEnrichmentError(sel.TMDBID, err)
	}
	report(3, StageActors)
	snap.Actors = e.enrichCast(ctx, credits.Cast)

	if err := ctx.Err(); err != nil {
		return nil, bmnerrors.NewEnrichmentError(sel.TMDBID, err)
	}
	report(4, StageCrew)
	snap.Directors = e.enrichCrew(ctx, crewWithJobs(credits.Crew, e.policy.DirectorJobs))
	snap.Writers = e.enrichCrew(ctx, crewWithJobs(credits.Crew, e.policy.WriterJobs))

	report(5, StageGenres)
	snap.Genres = mapGenres(details.Genres)

	report(6, StageStudios)
	snap.Studios = mapStudios(details.ProductionCompanies)

	report(7, StageCountries)
	snap.Countries = mapCountries(details.ProductionCountries)

	report(8, StageLanguages)
	snap.Languages = mapLanguages(details.SpokenLanguages)

	report(TotalStages, StageComplete)
	slog.Debug("Enriched movie",
		"tmdb_id", sel.TMDBID,
		"actors", len(snap.Actors),
		"directors", len(snap.Directors),
		"writers", len(snap.Writers),
	)
	return snap, nil
}

func (e *Engine) enrichCast(ctx context.Context, cast []tmdb.CastMember) []Person {
	if e.policy.CastLimit > 0 && len(cast) > e.policy.CastLimit {
		cast = cast[:e.policy.CastLimit]
	}

	actors := make([]Person, 0, len(cast))
	for _, member := range cast {
		p := e.person(ctx, member.ID, member.Name, member.ProfilePath)
		p.Character = member.Character
		actors = append(actors, p)
	}
	return actors
}

// enrichCrew expects crew already de-duplicated.
func (e *Engine) enrichCrew(ctx context.Context, crew []tmdb.CrewMember) []Person {
	people := make([]Person, 0, len(crew))
	for _, member := range crew {
		people = append(people, e.person(ctx, member.ID, member.Name, member.ProfilePath))
	}
	return people
}

// person builds the enriched record, falling back to the credit data when
// the profile fetch fails.
func (e *Engine) person(ctx context.Context, id int, name, profilePath string) Person {
	p := Person{
		TMDBID:          id,
		Name:            name,
		ProfilePath:     profilePath,
		ProfileImageURL: e.catalog.ImageURL(profilePath, e.policy.ProfileImageSize),
	}

	details, err := e.catalog.GetPersonDetails(ctx, id)
	if err != nil {
		slog.Warn("Failed to enrich person", "name", name, "tmdb_id", id, "error", err)
		return p
	}

	p.Biography = details.Biography
	p.Birthday = details.Birthday
	p.Deathday = details.Deathday
	p.PlaceOfBirth = details.PlaceOfBirth
	return p
}

// crewWithJobs keeps the first credit of each person whose job is in jobs.
func crewWithJobs(crew []tmdb.CrewMember, jobs []string) []tmdb.CrewMember {
	seen := make(map[int]bool)
	var out []tmdb.CrewMember
	for _, member := range crew {
		if !slices.Contains(jobs, member.Job) || seen[member.ID] {
			continue
		}
		seen[member.ID] = true
		out = append(out, member)
	}
	return out
}

func mapGenres(genres []tmdb.Genre) []Genre {
	out := make([]Genre, 0, len(genres))
	for _, g := range genres {
		out = append(out, Genre{TMDBID: g.ID, Name: g.Name})
	}
	return out
}

func mapStudios(companies []tmdb.ProductionCompany) []Studio {
	out := make([]Studio, 0, len(companies))
	for _, c := range companies {
		out = append(out, Studio{TMDBID: c.ID, Name: c.Name, LogoPath: c.LogoPath, OriginCountry: c.OriginCountry})
	}
	return out
}

func mapCountries(countries []tmdb.ProductionCountry) []Country {
	out := make([]Country, 0, len(countries))
	for _, c := range countries {
		out = append(out, Country{ISOCode: c.ISO3166, Name: c.Name})
	}
	return out
}

func mapLanguages(languages []tmdb.SpokenLanguage) []Language {
	out := make([]Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, Language{ISOCode: l.ISO639, Name: l.Name, EnglishName: l.EnglishName})
	}
	return out
}
