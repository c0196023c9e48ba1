package wordpress

import (
	"context"
	"regexp"
	"strings"
)

// Movie is the canonical representation of a materialized movie post.
type Movie struct {
	ID            int     `json:"id"`
	TMDBID        int     `json:"tmdbId"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"originalTitle,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	ReleaseDate   string  `json:"releaseDate,omitempty"`
	Year          int     `json:"year,omitempty"`
	Runtime       int     `json:"runtime,omitempty"`
	Budget        int64   `json:"budget,omitempty"`
	Revenue       int64   `json:"revenue,omitempty"`
	VoteAverage   float64 `json:"voteAverage,omitempty"`
	VoteCount     int     `json:"voteCount,omitempty"`
	Tagline       string  `json:"tagline,omitempty"`
	PosterURL     string  `json:"posterUrl,omitempty"`
	BackdropURL   string  `json:"backdropUrl,omitempty"`
	IMDbID        string  `json:"imdbId,omitempty"`
	AmazonLink    string  `json:"amazonLink,omitempty"`
	Slug          string  `json:"slug"`
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of other characters into a dash.
func Slugify(s string) string {
	return nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// MovieFromPost converts a movies post. The poster comes from the embedded
// featured media when the post was fetched with _embed, else from movie_poster.
func MovieFromPost(p *Post) Movie {
	title := p.String("movie_title")
	if title == "" {
		title = p.Title
	}
	if title == "" {
		title = "Unknown Movie"
	}
	originalTitle := p.String("movie_original_title")
	if originalTitle == "" {
		originalTitle = title
	}

	poster := embeddedMediaURL(p)
	if poster == "" {
		poster = mediaURL(p.Fields["movie_poster"])
	}
	backdrop := mediaURL(p.Fields["movie_backdrop"])

	return Movie{
		ID:            p.ID,
		TMDBID:        p.Int("movie_tmdb_id"),
		Title:         title,
		OriginalTitle: originalTitle,
		Overview:      p.String("movie_overview"),
		ReleaseDate:   p.String("movie_release_date"),
		Year:          p.Int("movie_year"),
		Runtime:       p.Int("movie_runtime"),
		Budget:        int64(p.Float("movie_budget")),
		Revenue:       int64(p.Float("movie_box_office")),
		VoteAverage:   p.Float("movie_tmdb_rating"),
		VoteCount:     p.Int("movie_tmdb_votes"),
		Tagline:       p.String("movie_tagline"),
		PosterURL:     poster,
		BackdropURL:   backdrop,
		IMDbID:        p.String("movie_imdb_id"),
		AmazonLink:    p.String("movie_amazon_link"),
		Slug:          Slugify(title),
	}
}

// GetMovie fetches a movie post by ID.
func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	post, err := c.GetPost(ctx, PostTypeMovies, id)
	if err != nil {
		return nil, err
	}
	movie := MovieFromPost(post)
	return &movie, nil
}

func embeddedMediaURL(p *Post) string {
	embedded, ok := p.Fields["_embedded"].(map[string]any)
	if !ok {
		return ""
	}
	media, ok := embedded["wp:featuredmedia"].([]any)
	if !ok || len(media) == 0 {
		return ""
	}
	return mediaURL(media[0])
}

// mediaURL reads an image reference that Pods returns either as a URL or a media object.
func mediaURL(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		for _, key := range []string{"source_url", "url", "guid"} {
			switch ref := val[key].(type) {
			case string:
				if ref != "" {
					return ref
				}
			case map[string]any:
				if s := toString(ref["rendered"]); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
