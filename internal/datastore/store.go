// Package datastore keeps a local ledger of materialized movies, one row per
// movie created in WordPress, so a curator can see what each run produced.
package datastore

import (
	"context"
	"time"
)

// Entry is one materialized movie.
type Entry struct {
	RunID     string
	TMDBID    int
	MovieID   int
	Title     string
	Actors    []int
	Directors []int
	Writers   []int
	Genres    []int
	Studios   []int
	Countries []int
	Languages []int
	CreatedAt time.Time
}

// Ledger records and lists materialized movies.
type Ledger interface {
	// Record stores entries in one transaction.
	Record(ctx context.Context, entries ...Entry) error

	// Run lists the entries of one processing run in insertion order.
	Run(ctx context.Context, runID string) ([]Entry, error)

	// Movie lists every materialization of a TMDB movie, newest first.
	Movie(ctx context.Context, tmdbID int) ([]Entry, error)

	// Close releases the underlying connection.
	Close() error
}
