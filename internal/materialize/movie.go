package materialize

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lepinkainen/bmn/internal/enrichment"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

type movieFields struct {
	Title         string   `wp:"movie_title"`
	OriginalTitle string   `wp:"movie_original_title"`
	Year          string   `wp:"movie_year"`
	ReleaseDate   string   `wp:"movie_release_date"`
	Runtime       int      `wp:"movie_runtime"`
	Tagline       string   `wp:"movie_tagline"`
	Overview      string   `wp:"movie_overview"`
	Budget        string   `wp:"movie_budget"`
	BoxOffice     string   `wp:"movie_box_office"`
	Poster        int      `wp:"movie_poster,omitempty"`
	Backdrop      int      `wp:"movie_backdrop,omitempty"`
	TMDBID        string   `wp:"movie_tmdb_id"`
	TMDBURL       string   `wp:"movie_tmdb_url"`
	TMDBRating    string   `wp:"movie_tmdb_rating"`
	TMDBVotes     string   `wp:"movie_tmdb_votes"`
	IMDbID        string   `wp:"movie_imdb_id"`
	IMDbURL       string   `wp:"movie_imdb_url"`
	AmazonLink    string   `wp:"movie_amazon_link,omitempty"`
	Characters    []string `wp:"movie_characters"`

	Actors    []int `wp:"movie_actors"`
	Directors []int `wp:"movie_directors"`
	Writers   []int `wp:"movie_writers"`
	Genres    []int `wp:"movie_genres"`
	Studios   []int `wp:"movie_studios"`
	Countries []int `wp:"movie_countries"`
	Languages []int `wp:"movie_languages"`
}

// createMovie uploads the poster and backdrop, each allowed to fail on its
// own, and creates the movie post referencing every created entity.
func (e *Engine) createMovie(ctx context.Context, snap *enrichment.Snapshot, created CreatedEntities) (int, error) {
	movie := snap.Movie

	var posterID, backdropID int
	if url := e.images.ImageURL(movie.PosterPath, "w500"); url != "" {
		if img := e.upload(ctx, url, fmt.Sprintf("movie-%d-poster.jpg", movie.ID)); img != nil {
			posterID = img.ID
		}
	}
	if url := e.images.ImageURL(movie.BackdropPath, "w1280"); url != "" {
		if img := e.upload(ctx, url, fmt.Sprintf("movie-%d-backdrop.jpg", movie.ID)); img != nil {
			backdropID = img.ID
		}
	}

	fields := movieFields{
		Title:         movie.Title,
		OriginalTitle: movie.OriginalTitle,
		Year:          movie.Year(),
		ReleaseDate:   movie.ReleaseDate,
		Runtime:       movie.Runtime,
		Tagline:       movie.Tagline,
		Overview:      movie.Overview,
		Budget:        nonZero(movie.Budget),
		BoxOffice:     nonZero(movie.Revenue),
		Poster:        posterID,
		Backdrop:      backdropID,
		TMDBID:        strconv.Itoa(movie.ID),
		TMDBURL:       fmt.Sprintf(tmdbMovieURL, movie.ID),
		TMDBVotes:     nonZero(int64(movie.VoteCount)),
		IMDbID:        movie.IMDbID,
		Characters:    Characters(snap.Actors),
		Actors:        created.Actors,
		Directors:     created.Directors,
		Writers:       created.Writers,
		Genres:        created.Genres,
		Studios:       created.Studios,
		Countries:     created.Countries,
		Languages:     created.Languages,
	}
	if movie.VoteAverage != 0 {
		fields.TMDBRating = strconv.FormatFloat(movie.VoteAverage, 'f', -1, 64)
	}
	if movie.IMDbID != "" {
		fields.IMDbURL = fmt.Sprintf(imdbTitleURL, movie.IMDbID)
	}
	if e.linker != nil {
		fields.AmazonLink = e.linker.MovieLink(movie.Title, movie.ReleaseDate)
	}

	post, err := e.content.CreatePost(ctx, wordpress.PostTypeMovies, wordpress.PostInput{
		Title:         movie.Title,
		Status:        wordpress.StatusPublish,
		FeaturedMedia: posterID,
		Fields:        wordpress.FieldsOf(fields),
	})
	if err != nil {
		return 0, err
	}
	return post.ID, nil
}

// Characters lists the character names of the actors that have one, in billing order.
func Characters(actors []enrichment.Person) []string {
	out := make([]string, 0, len(actors))
	for _, a := range actors {
		if a.Character != "" {
			out = append(out, a.Character)
		}
	}
	return out
}

func nonZero(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
