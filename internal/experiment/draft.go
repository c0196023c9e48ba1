// Package experiment creates bad movie night experiments from draft files:
// the movies are processed first and the experiment is saved pointing at
// the resulting movie posts.
package experiment

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/bmn/internal/enrichment"
)

// Draft is an experiment before it is saved. A zero Number takes the next
// free one from the site; an empty Title and HostID take defaults.
type Draft struct {
	Number    int          `yaml:"number" json:"number,omitempty"`
	Title     string       `yaml:"title" json:"title,omitempty"`
	Date      string       `yaml:"date" json:"date,omitempty"`
	HostID    int          `yaml:"host_id" json:"hostId,omitempty"`
	Platforms []string     `yaml:"platforms" json:"platforms,omitempty"`
	Notes     string       `yaml:"notes" json:"notes,omitempty"`
	Poster    string       `yaml:"poster" json:"-"`
	Movies    []DraftMovie `yaml:"movies" json:"movies"`

	// RemoveMovies lists movie post IDs to drop when updating an experiment.
	RemoveMovies []int `yaml:"remove_movies,omitempty" json:"removeMovies,omitempty"`
}

// DraftMovie names a movie by its TMDB ID.
type DraftMovie struct {
	TMDBID      int    `yaml:"tmdb_id" json:"tmdbId"`
	Title       string `yaml:"title" json:"title"`
	ReleaseDate string `yaml:"release_date" json:"releaseDate,omitempty"`
}

// Selections converts the draft movies for processing.
func (d *Draft) Selections() []enrichment.Selection {
	out := make([]enrichment.Selection, 0, len(d.Movies))
	for _, m := range d.Movies {
		out = append(out, enrichment.Selection{TMDBID: m.TMDBID, Title: m.Title, ReleaseDate: m.ReleaseDate})
	}
	return out
}

// Validate checks that every movie has a TMDB ID and a title.
func (d *Draft) Validate() error {
	for _, id := range d.RemoveMovies {
		if id <= 0 {
			return fmt.Errorf("remove_movies: invalid movie id %d", id)
		}
	}
	for i, m := range d.Movies {
		if m.TMDBID <= 0 {
			return fmt.Errorf("movie %d: tmdb_id is required", i+1)
		}
		if m.Title == "" {
			return fmt.Errorf("movie %d (%d): title is required", i+1, m.TMDBID)
		}
	}
	return nil
}

// LoadDraft reads a YAML draft file.
func LoadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return ParseDraft(data)
}

// ParseDraft decodes a YAML draft. Unknown keys are rejected.
func ParseDraft(data []byte) (*Draft, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Draft
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// AddMovie appends a movie unless the draft already has its TMDB ID.
// It reports whether the movie was added.
func (d *Draft) AddMovie(m DraftMovie) bool {
	for _, existing := range d.Movies {
		if existing.TMDBID == m.TMDBID {
			return false
		}
	}
	d.Movies = append(d.Movies, m)
	return true
}

// Save writes the draft as YAML.
func (d *Draft) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}
