package enrichment

import "github.com/lepinkainen/bmn/internal/tmdb"

// Selection is the minimal movie identity picked from search results.
type Selection struct {
	TMDBID      int     `json:"tmdbId"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	PosterPath  string  `json:"posterPath,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
}

// SelectionFromResult converts a search hit into a Selection.
func SelectionFromResult(r tmdb.SearchResult) Selection {
	return Selection{
		TMDBID:      r.ID,
		Title:       r.DisplayTitle(),
		ReleaseDate: r.ReleaseDate,
		PosterPath:  r.PosterPath,
		Overview:    r.Overview,
		VoteAverage: r.VoteAverage,
	}
}

// Person is an enriched cast or crew member. Character is only set for actors.
// Biography and the dates stay empty when the profile fetch failed.
type Person struct {
	TMDBID          int    `json:"tmdbId"`
	Name            string `json:"name"`
	Character       string `json:"character,omitempty"`
	ProfilePath     string `json:"profilePath,omitempty"`
	Biography       string `json:"biography,omitempty"`
	Birthday        string `json:"birthday,omitempty"`
	Deathday        string `json:"deathday,omitempty"`
	PlaceOfBirth    string `json:"placeOfBirth,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Genre is a catalog genre.
type Genre struct {
	TMDBID int    `json:"tmdbId"`
	Name   string `json:"name"`
}

// Studio is a production company.
type Studio struct {
	TMDBID        int    `json:"tmdbId"`
	Name          string `json:"name"`
	LogoPath      string `json:"logoPath,omitempty"`
	OriginCountry string `json:"originCountry,omitempty"`
}

// Country is a production country.
type Country struct {
	ISOCode string `json:"isoCode"`
	Name    string `json:"name"`
}

// Language is a spoken language.
type Language struct {
	ISOCode     string `json:"isoCode"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName"`
}

// Snapshot is the full relational expansion of one movie, not yet persisted.
type Snapshot struct {
	Movie     *tmdb.MovieDetails `json:"movie"`
	Actors    []Person           `json:"actors"`
	Directors []Person           `json:"directors"`
	Writers   []Person           `json:"writers"`
	Genres    []Genre            `json:"genres"`
	Studios   []Studio           `json:"studios"`
	Countries []Country          `json:"countries"`
	Languages []Language         `json:"languages"`
}

// Progress is a stage update. Step is 1-based.
type Progress struct {
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
}

// ProgressFunc receives stage updates. It may be nil.
type ProgressFunc func(Progress)
