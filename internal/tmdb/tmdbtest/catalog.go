// Package tmdbtest provides an in-memory catalog for tests of code built
// on the TMDB client.
package tmdbtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/lepinkainen/bmn/internal/tmdb"
)

// Catalog is a fake TMDB catalog. It is safe for concurrent use.
type Catalog struct {
	mu sync.Mutex

	movies  map[int]*tmdb.MovieDetails
	credits map[int]*tmdb.Credits
	people  map[int]*tmdb.Person

	movieErrors  map[int]error
	personErrors map[int]error

	detailCalls map[int]int
	creditCalls map[int]int
	personCalls []int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		movies:       make(map[int]*tmdb.MovieDetails),
		credits:      make(map[int]*tmdb.Credits),
		people:       make(map[int]*tmdb.Person),
		movieErrors:  make(map[int]error),
		personErrors: make(map[int]error),
		detailCalls:  make(map[int]int),
		creditCalls:  make(map[int]int),
	}
}

// AddMovie registers a movie and its credits. Every credited person gets a
// profile with a biography.
func (c *Catalog) AddMovie(details *tmdb.MovieDetails, credits *tmdb.Credits) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.movies[details.ID] = details
	if credits == nil {
		return
	}
	c.credits[details.ID] = credits
	for _, m := range credits.Cast {
		c.people[m.ID] = profile(m.ID, m.Name, m.ProfilePath)
	}
	for _, m := range credits.Crew {
		c.people[m.ID] = profile(m.ID, m.Name, m.ProfilePath)
	}
}

// FailMovie makes detail and credit fetches for movieID return err.
func (c *Catalog) FailMovie(movieID int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movieErrors[movieID] = err
}

// FailPerson makes the profile fetch for personID return an error.
func (c *Catalog) FailPerson(personID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personErrors[personID] = fmt.Errorf("person %d: service unavailable", personID)
}

// GetMovieDetails implements the catalog lookup. Credits are not appended.
func (c *Catalog) GetMovieDetails(_ context.Context, movieID int) (*tmdb.MovieDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detailCalls[movieID]++
	if err := c.movieErrors[movieID]; err != nil {
		return nil, err
	}
	details, ok := c.movies[movieID]
	if !ok {
		return nil, fmt.Errorf("movie %d: not found", movieID)
	}
	clone := *details
	return &clone, nil
}

// GetMovieCredits implements the catalog lookup.
func (c *Catalog) GetMovieCredits(_ context.Context, movieID int) (*tmdb.Credits, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.creditCalls[movieID]++
	if err := c.movieErrors[movieID]; err != nil {
		return nil, err
	}
	credits, ok := c.credits[movieID]
	if !ok {
		return nil, fmt.Errorf("credits %d: not found", movieID)
	}
	return credits, nil
}

// GetPersonDetails implements the catalog lookup.
func (c *Catalog) GetPersonDetails(_ context.Context, personID int) (*tmdb.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.personCalls = append(c.personCalls, personID)
	if err := c.personErrors[personID]; err != nil {
		return nil, err
	}
	person, ok := c.people[personID]
	if !ok {
		return nil, fmt.Errorf("person %d: not found", personID)
	}
	return person, nil
}

// ImageURL mirrors the real client's URL shape on a fixed host.
func (c *Catalog) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return "https://image.tmdb.test/t/p/" + size + path
}

// DetailCalls returns how many times details were requested for movieID.
func (c *Catalog) DetailCalls(movieID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detailCalls[movieID]
}

// CreditCalls returns how many times credits were requested for movieID.
func (c *Catalog) CreditCalls(movieID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creditCalls[movieID]
}

// PersonCalls returns the person IDs fetched, in order.
func (c *Catalog) PersonCalls() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.personCalls...)
}

func profile(id int, name, profilePath string) *tmdb.Person {
	return &tmdb.Person{
		ID:           id,
		Name:         name,
		Biography:    name + " is a performer.",
		Birthday:     "1970-01-01",
		PlaceOfBirth: "Springfield",
		ProfilePath:  profilePath,
	}
}
