package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS materialized_movies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	tmdb_id INTEGER NOT NULL,
	movie_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	actors TEXT NOT NULL,
	directors TEXT NOT NULL,
	writers TEXT NOT NULL,
	genres TEXT NOT NULL,
	studios TEXT NOT NULL,
	countries TEXT NOT NULL,
	languages TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_materialized_movies_run ON materialized_movies(run_id);
CREATE INDEX IF NOT EXISTS idx_materialized_movies_tmdb ON materialized_movies(tmdb_id);`

const selectColumns = `run_id, tmdb_id, movie_id, title, actors, directors, writers,
	genres, studios, countries, languages, created_at`

// SQLiteStore is a Ledger in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a store for dbPath. Call Connect before use.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Open creates a store and connects to it.
func Open(dbPath string) (*SQLiteStore, error) {
	s := NewSQLiteStore(dbPath)
	if err := s.Connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// Connect opens the database and creates the ledger table if needed.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}
	s.db = db
	return nil
}

// Record inserts entries in a single transaction. Zero CreatedAt values are
// set to the current time.
func (s *SQLiteStore) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO materialized_movies (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			e.RunID, e.TMDBID, e.MovieID, e.Title,
			encodeIDs(e.Actors), encodeIDs(e.Directors), encodeIDs(e.Writers),
			encodeIDs(e.Genres), encodeIDs(e.Studios), encodeIDs(e.Countries), encodeIDs(e.Languages),
			e.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Run lists the entries of runID in insertion order.
func (s *SQLiteStore) Run(ctx context.Context, runID string) ([]Entry, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM materialized_movies WHERE run_id = ? ORDER BY id`, runID)
}

// Movie lists the materializations of tmdbID, newest first.
func (s *SQLiteStore) Movie(ctx context.Context, tmdbID int) ([]Entry, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM materialized_movies WHERE tmdb_id = ? ORDER BY id DESC`, tmdbID)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var actors, directors, writers, genres, studios, countries, languages string
		if err := rows.Scan(&e.RunID, &e.TMDBID, &e.MovieID, &e.Title,
			&actors, &directors, &writers, &genres, &studios, &countries, &languages,
			&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		for _, col := range []struct {
			raw string
			out *[]int
		}{
			{actors, &e.Actors}, {directors, &e.Directors}, {writers, &e.Writers}, {genres, &e.Genres},
			{studios, &e.Studios}, {countries, &e.Countries}, {languages, &e.Languages},
		} {
			if err := json.Unmarshal([]byte(col.raw), col.out); err != nil {
				return nil, fmt.Errorf("failed to decode ledger IDs: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func encodeIDs(ids []int) string {
	if ids == nil {
		ids = []int{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}
