package materialize

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/bmn/internal/wordpress"
)

// Kind is a category of content entity.
type Kind string

const (
	KindActor    Kind = "actor"
	KindDirector Kind = "director"
	KindWriter   Kind = "writer"
	KindGenre    Kind = "genre"
	KindStudio   Kind = "studio"
	KindCountry  Kind = "country"
	KindLanguage Kind = "language"
	KindMovie    Kind = "movie"
)

var postTypes = map[Kind]string{
	KindActor:    wordpress.PostTypeActors,
	KindDirector: wordpress.PostTypeDirectors,
	KindWriter:   wordpress.PostTypeWriters,
	KindGenre:    wordpress.PostTypeGenres,
	KindStudio:   wordpress.PostTypeStudios,
	KindCountry:  wordpress.PostTypeCountries,
	KindLanguage: wordpress.PostTypeLanguages,
	KindMovie:    wordpress.PostTypeMovies,
}

// PostType returns the post type entities of this kind are stored as.
func (k Kind) PostType() string {
	return postTypes[k]
}

// IDField returns the custom field holding the entity's external ID:
// the ISO code for countries and languages, the TMDB ID for everything else.
func (k Kind) IDField() string {
	if k == KindCountry || k == KindLanguage {
		return string(k) + "_iso_code"
	}
	return string(k) + "_tmdb_id"
}

// Finder looks up an already persisted entity by its external ID.
type Finder interface {
	FindExisting(ctx context.Context, kind Kind, externalID, name string) (id int, found bool, err error)
}

// NoopFinder never finds anything, so every entity is created.
type NoopFinder struct{}

// FindExisting always reports not found.
func (NoopFinder) FindExisting(context.Context, Kind, string, string) (int, bool, error) {
	return 0, false, nil
}

// Searcher is the custom field search the SearchFinder runs on.
type Searcher interface {
	SearchPostsByCustomField(ctx context.Context, postType, key, value string) ([]wordpress.Post, error)
}

// SearchFinder matches entities on their external ID field. Names are not
// used for matching.
type SearchFinder struct {
	searcher Searcher
}

// NewSearchFinder creates a finder backed by searcher.
func NewSearchFinder(searcher Searcher) *SearchFinder {
	return &SearchFinder{searcher: searcher}
}

// FindExisting returns the first post whose ID field equals externalID.
// The field value is checked on the results as well, since sites that do
// not register the meta query ignore the filter and return every post.
func (f *SearchFinder) FindExisting(ctx context.Context, kind Kind, externalID, name string) (int, bool, error) {
	if externalID == "" {
		return 0, false, nil
	}

	posts, err := f.searcher.SearchPostsByCustomField(ctx, kind.PostType(), kind.IDField(), externalID)
	if err != nil {
		return 0, false, err
	}

	for i := range posts {
		if posts[i].String(kind.IDField()) == externalID {
			slog.Debug("Found existing entity", "kind", kind, "name", name, "id", posts[i].ID)
			return posts[i].ID, true, nil
		}
	}
	return 0, false, nil
}

// NewFinder returns a SearchFinder when dedupe is on, else a NoopFinder.
func NewFinder(dedupe bool, searcher Searcher) Finder {
	if dedupe && searcher != nil {
		return NewSearchFinder(searcher)
	}
	return NoopFinder{}
}
